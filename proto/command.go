package proto

import (
	"fmt"
	"strconv"
	"strings"
)

// Verb identifies which of the eleven recognized command verbs a line
// names.
type Verb int

const (
	Ping Verb = iota
	Status
	NodeGet
	NodeSet
	FieldGet
	FieldSet
	Delete
	Tick
	Messages
	Types
	TypeShow
)

// LogLevel canonicalises the three log-verbosity levels that appear under
// several different enum shapes in the reference.
type LogLevel int

const (
	Normal LogLevel = iota
	Quiet
	Verbose
)

// FieldAssignment is one "name=value" pair trailing a NODE SET command.
type FieldAssignment struct {
	Name  string
	Value string
}

// Command is a single parsed input line.
type Command struct {
	Verb Verb

	Region Region

	TypeName string            // NODE SET
	Fields   []FieldAssignment // NODE SET

	FieldName  string // FIELD GET / FIELD SET
	FieldValue string // FIELD SET

	TickCount int      // TICK, default 1
	LogLevel  LogLevel // TICK

	TypeQuery string // TYPE
}

// Parse tokenizes a single input line into a Command. Verbs are matched
// case-insensitively; everything else (type names, field names, values) is
// passed through verbatim for the caller to resolve against the registry.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("proto: empty command")
	}

	verb := strings.ToUpper(fields[0])
	switch verb {
	case "PING":
		return Command{Verb: Ping}, nil

	case "STATUS":
		return Command{Verb: Status}, nil

	case "MESSAGES":
		return Command{Verb: Messages}, nil

	case "TYPES":
		return Command{Verb: Types}, nil

	case "TYPE":
		if len(fields) < 2 {
			return Command{}, fmt.Errorf("proto: TYPE requires a type name")
		}
		return Command{Verb: TypeShow, TypeQuery: fields[1]}, nil

	case "DELETE":
		if len(fields) < 2 {
			return Command{}, fmt.Errorf("proto: DELETE requires a region")
		}
		region, err := ParseRegion(fields[1])
		if err != nil {
			return Command{}, err
		}
		return Command{Verb: Delete, Region: region}, nil

	case "TICK":
		return parseTick(fields[1:])

	case "NODE":
		return parseNode(fields[1:])

	case "FIELD":
		return parseField(fields[1:])

	default:
		return Command{}, fmt.Errorf("proto: unknown verb %q", fields[0])
	}
}

func parseTick(args []string) (Command, error) {
	cmd := Command{Verb: Tick, TickCount: 1, LogLevel: Normal}

	for _, a := range args {
		switch strings.ToLower(a) {
		case "--quiet":
			cmd.LogLevel = Quiet
		case "--verbose":
			cmd.LogLevel = Verbose
		default:
			n, err := strconv.Atoi(a)
			if err != nil {
				return Command{}, fmt.Errorf("proto: invalid TICK count %q", a)
			}
			cmd.TickCount = n
		}
	}
	return cmd, nil
}

func parseNode(args []string) (Command, error) {
	if len(args) < 2 {
		return Command{}, fmt.Errorf("proto: NODE requires GET or SET")
	}

	region, err := ParseRegion(args[1])
	if err != nil {
		return Command{}, err
	}

	switch strings.ToUpper(args[0]) {
	case "GET":
		return Command{Verb: NodeGet, Region: region}, nil

	case "SET":
		if len(args) < 3 {
			return Command{}, fmt.Errorf("proto: NODE SET requires a type name")
		}
		cmd := Command{Verb: NodeSet, Region: region, TypeName: args[2]}
		for _, raw := range args[3:] {
			name, value, ok := strings.Cut(raw, "=")
			if !ok {
				return Command{}, fmt.Errorf("proto: invalid field assignment %q", raw)
			}
			cmd.Fields = append(cmd.Fields, FieldAssignment{Name: name, Value: value})
		}
		return cmd, nil

	default:
		return Command{}, fmt.Errorf("proto: unknown NODE subcommand %q", args[0])
	}
}

func parseField(args []string) (Command, error) {
	if len(args) < 2 {
		return Command{}, fmt.Errorf("proto: FIELD requires GET or SET")
	}

	region, err := ParseRegion(args[1])
	if err != nil {
		return Command{}, err
	}

	switch strings.ToUpper(args[0]) {
	case "GET":
		if len(args) < 3 {
			return Command{}, fmt.Errorf("proto: FIELD GET requires a field name")
		}
		return Command{Verb: FieldGet, Region: region, FieldName: args[2]}, nil

	case "SET":
		if len(args) < 4 {
			return Command{}, fmt.Errorf("proto: FIELD SET requires a field name and value")
		}
		return Command{Verb: FieldSet, Region: region, FieldName: args[2], FieldValue: args[3]}, nil

	default:
		return Command{}, fmt.Errorf("proto: unknown FIELD subcommand %q", args[0])
	}
}
