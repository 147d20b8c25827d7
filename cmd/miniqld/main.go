// Command miniqld is the thin binary wrapping package session: it owns
// flag parsing and process lifetime, nothing else. Grounded on the
// teacher's cmd/mysqldef/mysqldef.go: a jessevdk/go-flags options struct,
// a password prompt for a credential that shouldn't live in shell
// history, and a final handoff to one library call that does the work.
package main

import (
	"fmt"
	"log"
	"os"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"
	"golang.org/x/term"

	"github.com/minidb/miniql/expr"
	"github.com/minidb/miniql/session"
	"github.com/minidb/miniql/stmt"
	"github.com/minidb/miniql/value"
)

var version = "dev"

type options struct {
	BaseDir  string `long:"base-dir" description:"Directory holding table/index/blob files" value-name:"dir"`
	Config   string `long:"config" description:"YAML config file (base_dir, log_level); flags override it" value-name:"path"`
	LogLevel string `long:"log-level" description:"slog level: debug, info, warn, error" value-name:"level"`

	Demo bool `long:"demo" description:"Run the built-in CREATE TABLE/INSERT/SELECT walkthrough and print its results"`

	LoadDataDSN    string `long:"load-data-dsn" description:"DSN of an external database to pull one table from via LOAD DATA" value-name:"dsn"`
	LoadDataKind   string `long:"load-data-kind" description:"External source dialect: mysql, postgres, mssql, sqlite3" value-name:"kind" default:"mysql"`
	LoadDataSource string `long:"load-data-source" description:"Source table name (or a full SELECT) to pull rows from" value-name:"table"`
	LoadDataTarget string `long:"load-data-target" description:"Target miniql table to insert the pulled rows into" value-name:"table"`
	PasswordPrompt bool   `long:"password-prompt" description:"Prompt for the external source password instead of embedding it in --load-data-dsn, overridden by $MINIQLD_LOAD_DATA_PWD"`

	Help    bool `long:"help" description:"Show this help"`
	Version bool `long:"version" description:"Show this version"`
}

func parseOptions(args []string) options {
	var opts options
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[options]"
	if _, err := parser.ParseArgs(args); err != nil {
		log.Fatal(err)
	}
	if opts.Help {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}
	if opts.Version {
		fmt.Println(version)
		os.Exit(0)
	}
	return opts
}

func main() {
	opts := parseOptions(os.Args[1:])

	cfg, err := session.LoadConfig(opts.Config)
	if err != nil {
		log.Fatal(err)
	}
	if opts.BaseDir != "" {
		cfg.BaseDir = opts.BaseDir
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}

	sess, err := session.Open(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer sess.Close()

	if opts.LoadDataDSN != "" {
		if err := runLoadData(sess, opts); err != nil {
			log.Fatal(err)
		}
	}

	if opts.Demo {
		runDemo(sess)
	}
}

// runLoadData pulls opts.LoadDataSource from opts.LoadDataDSN into
// opts.LoadDataTarget, prompting for a password the same way the teacher's
// mysqldef prompts for one, rather than ever accepting it as a bare flag
// that would land in shell history.
func runLoadData(sess *session.Session, opts options) error {
	dsn := opts.LoadDataDSN
	password, ok := os.LookupEnv("MINIQLD_LOAD_DATA_PWD")
	if opts.PasswordPrompt && !ok {
		fmt.Print("Enter source database password: ")
		pass, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return err
		}
		password = string(pass)
	}
	if password != "" {
		dsn = fmt.Sprintf(dsn, password)
	}

	node := &stmt.ParsedSqlNode{
		Kind: stmt.KindLoadData,
		LoadData: &stmt.LoadDataNode{
			Table:       opts.LoadDataTarget,
			SourceKind:  opts.LoadDataKind,
			DSN:         dsn,
			SourceTable: opts.LoadDataSource,
		},
	}
	rs, err := sess.Execute(node)
	if err != nil {
		return err
	}
	printResultSet(rs.Columns, rs.Rows)
	return nil
}

// runDemo walks spec.md §8's first end-to-end scenario without a SQL
// parser in front of it: every statement is a *stmt.ParsedSqlNode built
// directly in Go, since producing one from SQL text is the external
// lexer/parser's job and out of this module's scope.
func runDemo(sess *session.Session) {
	run := func(label string, node *stmt.ParsedSqlNode) {
		rs, err := sess.Execute(node)
		if err != nil {
			log.Fatalf("%s: %v", label, err)
		}
		fmt.Println(label)
		printResultSet(rs.Columns, rs.Rows)
	}

	run("CREATE TABLE employee", &stmt.ParsedSqlNode{
		Kind: stmt.KindCreateTable,
		CreateTable: &stmt.CreateTableNode{
			Table: "employee",
			Columns: []stmt.ColumnDefNode{
				{Name: "id", Type: "ints"},
				{Name: "salary", Type: "ints"},
			},
		},
	})

	for _, row := range [][2]int32{{1, 50000}, {2, 90000}, {3, 72000}} {
		id, salary := row[0], row[1]
		run(fmt.Sprintf("INSERT INTO employee VALUES (%d, %d)", id, salary), &stmt.ParsedSqlNode{
			Kind: stmt.KindInsert,
			Insert: &stmt.InsertNode{
				Table: "employee",
				Rows: [][]*expr.Expr{
					{expr.NewValue(value.NewInt(id)), expr.NewValue(value.NewInt(salary))},
				},
			},
		})
	}

	run("SELECT id, salary FROM employee WHERE salary > 60000", &stmt.ParsedSqlNode{
		Kind: stmt.KindSelect,
		Select: &stmt.SelectNode{
			Relations: []stmt.RelationRef{{Name: "employee"}},
			Expressions: []*expr.Expr{
				expr.NewUnboundField("employee", "id", ""),
				expr.NewUnboundField("employee", "salary", ""),
			},
			Conditions: []stmt.ConditionNode{
				{Left: expr.NewUnboundField("employee", "salary", ""), Op: expr.GT, Right: expr.NewValue(value.NewInt(60000))},
			},
			Limit: -1,
		},
	})

	run("SHOW TABLES", &stmt.ParsedSqlNode{Kind: stmt.KindShowTables, ShowTables: &stmt.ShowTablesNode{}})
}

func printResultSet(columns []string, rows [][]value.Value) {
	if len(columns) == 0 {
		fmt.Println("  (no columns)")
		return
	}
	for _, row := range rows {
		rendered := make([]any, len(row))
		for i, v := range row {
			rendered[i] = v
		}
		pp.Println(rendered)
	}
	fmt.Printf("  %d row(s)\n\n", len(rows))
}
