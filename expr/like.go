package expr

// likeResult is the three-valued outcome of the recursive LIKE matcher:
// a clean match, a clean mismatch, or "abort" — the pattern still has
// non-wildcard content left but the subject string ran out, so every
// further attempt at the current recursion level is doomed too. Grounded
// on original_source/.../expression.cpp's string_like_internal, itself
// adapted from PostgreSQL's like_match.c.
type likeResult int

const (
	likeTrue likeResult = iota
	likeFalse
	likeAbort
)

// matchLike reports whether s matches SQL pattern p, where `%` matches any
// run of characters (including empty) and `_` matches exactly one
// character; `\` escapes the next pattern character.
func matchLike(s, p string) bool {
	return likeInternal(s, p) == likeTrue
}

func likeInternal(s, p string) likeResult {
	if p == "%" {
		return likeTrue
	}
	si, pi := 0, 0
	sLen, pLen := len(s), len(p)

	for pi < pLen && si < sLen {
		switch {
		case p[pi] == '\\':
			pi++
			if pi >= pLen || si >= sLen || p[pi] != s[si] {
				return likeFalse
			}
		case p[pi] == '%':
			pi++
			for pi < pLen {
				if p[pi] == '%' {
					pi++
				} else if p[pi] == '_' {
					if si >= sLen {
						return likeAbort
					}
					pi++
					si++
				} else {
					break
				}
			}
			if pi >= pLen {
				return likeTrue
			}
			var firstPat byte
			if p[pi] == '\\' && pi+1 < pLen {
				firstPat = p[pi+1]
			} else {
				firstPat = p[pi]
			}
			for si < sLen {
				if s[si] == firstPat {
					matched := likeInternal(s[si:], p[pi:])
					if matched != likeFalse {
						return matched
					}
				}
				si++
			}
			return likeAbort
		case p[pi] == '_':
			// matches any single character, nothing to check
		case p[pi] != s[si]:
			return likeFalse
		}
		pi++
		si++
	}

	if si < sLen {
		return likeFalse
	}
	for pi < pLen && p[pi] == '%' {
		pi++
	}
	if pi >= pLen {
		return likeTrue
	}
	return likeAbort
}
