package value

import (
	"fmt"

	"github.com/minidb/miniql/rc"
)

func mismatchErr(format string, args ...any) error {
	return rc.New(rc.INVALID_ARGUMENT, fmt.Sprintf(format, args...))
}
