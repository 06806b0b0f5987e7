package vm

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// Listing renders the program in its textual form. Each function entry is
// announced by a `.func NAME INDEX` line; every instruction is printed as
// `INDEX OPCODE [OPERAND]`. ParseListing reads the same form back.
func (p *Program) Listing() string {
	entries := make(map[int][]string)
	for _, name := range p.functionNames() {
		entries[p.Functions[name]] = append(entries[p.Functions[name]], name)
	}
	var sb strings.Builder
	for i, op := range p.Code {
		for _, name := range entries[i] {
			fmt.Fprintf(&sb, ".func %s %d\n", name, i)
		}
		fmt.Fprintf(&sb, "%04d  %s\n", i, op)
	}
	return sb.String()
}

func literal(v Value) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case NullValue:
		return "null"
	case BoolValue:
		return strconv.FormatBool(bool(val))
	case NumberValue:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case StrValue:
		return strconv.Quote(string(val))
	}
	return fmt.Sprintf("<%s>", v.Kind())
}

func parseLiteral(s string) (Value, error) {
	switch s {
	case "null":
		return Null, nil
	case "true":
		return BoolTrue, nil
	case "false":
		return BoolFalse, nil
	}
	if strings.HasPrefix(s, `"`) {
		str, err := strconv.Unquote(s)
		if err != nil {
			return nil, fmt.Errorf("bad string literal %s: %w", s, err)
		}
		return StrValue(str), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("bad literal %q", s)
	}
	return NumberValue(f), nil
}

// ParseListing rebuilds a Program from the text produced by Listing.
func ParseListing(text string) (*Program, error) {
	p := &Program{Functions: make(map[string]int)}
	sc := bufio.NewScanner(strings.NewReader(text))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, ".func") {
			fields := strings.Fields(line)
			if len(fields) != 3 {
				return nil, fmt.Errorf("line %d: malformed function header", lineNo)
			}
			idx, err := strconv.Atoi(fields[2])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			p.Functions[fields[1]] = idx
			continue
		}
		op, err := parseOp(line, len(p.Code))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		p.Code = append(p.Code, op)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func parseOp(line string, want int) (Op, error) {
	idxText, rest, _ := strings.Cut(line, " ")
	idx, err := strconv.Atoi(idxText)
	if err != nil {
		return Op{}, fmt.Errorf("bad instruction index %q", idxText)
	}
	if idx != want {
		return Op{}, fmt.Errorf("instruction index %d out of sequence, expected %d", idx, want)
	}
	name, operand, _ := strings.Cut(strings.TrimSpace(rest), " ")
	operand = strings.TrimSpace(operand)
	code, ok := LookupOpcode(name)
	if !ok {
		return Op{}, fmt.Errorf("unknown opcode %q", name)
	}
	op := Op{Code: code}
	switch code.Operand() {
	case NoOperand:
		if operand != "" {
			return Op{}, fmt.Errorf("%s takes no operand", code)
		}
	case AddressOperand, CountOperand:
		op.Arg, err = strconv.Atoi(operand)
		if err != nil {
			return Op{}, fmt.Errorf("%s: bad operand %q", code, operand)
		}
	case ValueOperand:
		op.Val, err = parseLiteral(operand)
		if err != nil {
			return Op{}, fmt.Errorf("%s: %w", code, err)
		}
	case NameOperand:
		v, err := parseLiteral(operand)
		if err != nil {
			return Op{}, fmt.Errorf("%s: %w", code, err)
		}
		s, ok := v.(StrValue)
		if !ok {
			return Op{}, fmt.Errorf("%s: name operand must be a string", code)
		}
		op.Val = s
	}
	return op, nil
}
