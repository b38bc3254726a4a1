package io

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/JohnPierman/pgmgo/data"
	"github.com/JohnPierman/pgmgo/factors"
	"github.com/JohnPierman/pgmgo/graph"
	"github.com/JohnPierman/pgmgo/models"
)

// bifTokenizer splits a BIF stream into identifier, number and
// punctuation tokens, skipping comments.
type bifTokenizer struct {
	input []rune
	pos   int
}

func newBifTokenizer(input string) *bifTokenizer {
	return &bifTokenizer{input: []rune(input)}
}

func (t *bifTokenizer) skipSpace() {
	for t.pos < len(t.input) {
		r := t.input[t.pos]
		if unicode.IsSpace(r) {
			t.pos++
			continue
		}
		if r == '/' && t.pos+1 < len(t.input) && t.input[t.pos+1] == '/' {
			for t.pos < len(t.input) && t.input[t.pos] != '\n' {
				t.pos++
			}
			continue
		}
		if r == '/' && t.pos+1 < len(t.input) && t.input[t.pos+1] == '*' {
			t.pos += 2
			for t.pos+1 < len(t.input) && !(t.input[t.pos] == '*' && t.input[t.pos+1] == '/') {
				t.pos++
			}
			t.pos += 2
			continue
		}
		return
	}
}

// next returns the next token, or "" at the end of the stream.
func (t *bifTokenizer) next() string {
	t.skipSpace()
	if t.pos >= len(t.input) {
		return ""
	}
	r := t.input[t.pos]
	if strings.ContainsRune("{}()[]|,;", r) {
		t.pos++
		return string(r)
	}
	start := t.pos
	for t.pos < len(t.input) {
		r := t.input[t.pos]
		if unicode.IsSpace(r) || strings.ContainsRune("{}()[]|,;", r) {
			break
		}
		t.pos++
	}
	return string(t.input[start:t.pos])
}

// peek returns the next token without consuming it.
func (t *bifTokenizer) peek() string {
	saved := t.pos
	token := t.next()
	t.pos = saved
	return token
}

func (t *bifTokenizer) expect(token string) error {
	got := t.next()
	if got != token {
		return fmt.Errorf("%w: expected %q, got %q", ErrInvalidFormat, token, got)
	}
	return nil
}

type bifProbability struct {
	child   string
	parents []string
	// table is the flat parameter list: parent configurations in
	// declared order with the last parent fastest, child states fastest
	// within each configuration.
	table []float64
	// entries are per-configuration rows keyed by parent states.
	entries map[string][]float64
}

// ReadCatBN parses a BIF network declaration into a categorical
// Bayesian network.
func ReadCatBN(r io.Reader) (*models.CatBN, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	t := newBifTokenizer(string(raw))

	variables := make(map[string]data.Variable)
	order := make([]string, 0)
	probabilities := make([]bifProbability, 0)

	for {
		token := t.next()
		if token == "" {
			break
		}
		switch token {
		case "network":
			// Skip the name and an optional property block.
			for tok := t.next(); tok != "" && tok != "{"; tok = t.next() {
			}
			depth := 1
			for depth > 0 {
				tok := t.next()
				if tok == "" {
					return nil, fmt.Errorf("%w: unterminated network block", ErrInvalidFormat)
				}
				if tok == "{" {
					depth++
				}
				if tok == "}" {
					depth--
				}
			}
		case "variable":
			v, err := parseBifVariable(t)
			if err != nil {
				return nil, err
			}
			variables[v.Label] = v
			order = append(order, v.Label)
		case "probability":
			p, err := parseBifProbability(t)
			if err != nil {
				return nil, err
			}
			probabilities = append(probabilities, p)
		default:
			return nil, fmt.Errorf("%w: unexpected token %q", ErrInvalidFormat, token)
		}
	}

	if len(order) == 0 {
		return nil, fmt.Errorf("%w: no variable declarations", ErrInvalidFormat)
	}

	g, err := graph.NewDiGraph(order)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	cpds := make([]*factors.CatCPD, 0, len(probabilities))
	for _, p := range probabilities {
		child, ok := variables[p.child]
		if !ok {
			return nil, fmt.Errorf("%w: undeclared variable %q", ErrInvalidFormat, p.child)
		}
		parents := make([]data.Variable, len(p.parents))
		for i, name := range p.parents {
			parent, ok := variables[name]
			if !ok {
				return nil, fmt.Errorf("%w: undeclared variable %q", ErrInvalidFormat, name)
			}
			parents[i] = parent

			pi, err := g.LabelToIndex(name)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
			}
			ci, err := g.LabelToIndex(p.child)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
			}
			if err := g.AddEdge(pi, ci); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
			}
		}

		params, err := bifParameters(child, parents, p)
		if err != nil {
			return nil, err
		}
		cpd, err := factors.NewCatCPD([]data.Variable{child}, parents, params)
		if err != nil {
			return nil, fmt.Errorf("%w: probability block for %q: %v", ErrInvalidFormat, p.child, err)
		}
		cpds = append(cpds, cpd)
	}

	bn, err := models.NewCatBN(g, cpds)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return bn, nil
}

func parseBifVariable(t *bifTokenizer) (data.Variable, error) {
	name := t.next()
	if name == "" {
		return data.Variable{}, fmt.Errorf("%w: missing variable name", ErrInvalidFormat)
	}
	if err := t.expect("{"); err != nil {
		return data.Variable{}, err
	}
	if err := t.expect("type"); err != nil {
		return data.Variable{}, err
	}
	if err := t.expect("discrete"); err != nil {
		return data.Variable{}, err
	}
	if err := t.expect("["); err != nil {
		return data.Variable{}, err
	}
	countToken := t.next()
	count, err := strconv.Atoi(countToken)
	if err != nil {
		return data.Variable{}, fmt.Errorf("%w: state count %q", ErrInvalidFormat, countToken)
	}
	if err := t.expect("]"); err != nil {
		return data.Variable{}, err
	}
	if err := t.expect("{"); err != nil {
		return data.Variable{}, err
	}
	states := make([]string, 0, count)
	for {
		token := t.next()
		if token == "}" {
			break
		}
		if token == "," {
			continue
		}
		if token == "" {
			return data.Variable{}, fmt.Errorf("%w: unterminated state list", ErrInvalidFormat)
		}
		states = append(states, token)
	}
	if len(states) != count {
		return data.Variable{}, fmt.Errorf(
			"%w: variable %q declares %d states but lists %d",
			ErrInvalidFormat, name, count, len(states),
		)
	}
	if t.peek() == ";" {
		t.next()
	}
	if err := t.expect("}"); err != nil {
		return data.Variable{}, err
	}
	return data.Variable{Label: name, States: states}, nil
}

func parseBifProbability(t *bifTokenizer) (bifProbability, error) {
	p := bifProbability{entries: make(map[string][]float64)}
	if err := t.expect("("); err != nil {
		return p, err
	}
	p.child = t.next()
	for {
		token := t.next()
		if token == ")" {
			break
		}
		if token == "|" || token == "," {
			continue
		}
		if token == "" {
			return p, fmt.Errorf("%w: unterminated probability header", ErrInvalidFormat)
		}
		p.parents = append(p.parents, token)
	}
	if err := t.expect("{"); err != nil {
		return p, err
	}

	for {
		token := t.next()
		switch token {
		case "}":
			return p, nil
		case "table":
			values, err := parseBifNumbers(t)
			if err != nil {
				return p, err
			}
			p.table = values
		case "(":
			key := make([]string, 0, len(p.parents))
			for {
				tok := t.next()
				if tok == ")" {
					break
				}
				if tok == "," {
					continue
				}
				if tok == "" {
					return p, fmt.Errorf("%w: unterminated entry header", ErrInvalidFormat)
				}
				key = append(key, tok)
			}
			values, err := parseBifNumbers(t)
			if err != nil {
				return p, err
			}
			p.entries[strings.Join(key, "\x00")] = values
		case "":
			return p, fmt.Errorf("%w: unterminated probability block", ErrInvalidFormat)
		}
	}
}

func parseBifNumbers(t *bifTokenizer) ([]float64, error) {
	values := make([]float64, 0)
	for {
		token := t.next()
		if token == ";" {
			return values, nil
		}
		if token == "," {
			continue
		}
		if token == "" {
			return nil, fmt.Errorf("%w: unterminated number list", ErrInvalidFormat)
		}
		v, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: number %q", ErrInvalidFormat, token)
		}
		values = append(values, v)
	}
}

// bifParameters assembles the parameter matrix of one probability block:
// rows over parent configurations in declared order with the last parent
// fastest, columns over the child states in declared order.
func bifParameters(child data.Variable, parents []data.Variable, p bifProbability) ([][]float64, error) {
	rows := 1
	shape := make([]int, len(parents))
	for i, parent := range parents {
		shape[i] = len(parent.States)
		rows *= shape[i]
	}
	cols := len(child.States)

	params := make([][]float64, rows)
	if p.table != nil {
		if len(p.table) != rows*cols {
			return nil, fmt.Errorf(
				"%w: table for %q has %d entries, expected %d",
				ErrInvalidFormat, child.Label, len(p.table), rows*cols,
			)
		}
		for r := 0; r < rows; r++ {
			params[r] = p.table[r*cols : (r+1)*cols]
		}
		return params, nil
	}

	index := factors.NewMultiIndex(shape)
	for key, values := range p.entries {
		states := strings.Split(key, "\x00")
		if len(states) != len(parents) {
			return nil, fmt.Errorf(
				"%w: entry for %q names %d parent states, expected %d",
				ErrInvalidFormat, child.Label, len(states), len(parents),
			)
		}
		tuple := make([]int, len(parents))
		for i, state := range states {
			found := -1
			for s, declared := range parents[i].States {
				if declared == state {
					found = s
					break
				}
			}
			if found < 0 {
				return nil, fmt.Errorf(
					"%w: unknown state %q of %q", ErrInvalidFormat, state, parents[i].Label,
				)
			}
			tuple[i] = found
		}
		r, err := index.Ravel(tuple)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		if len(values) != cols {
			return nil, fmt.Errorf(
				"%w: entry for %q has %d values, expected %d",
				ErrInvalidFormat, child.Label, len(values), cols,
			)
		}
		params[r] = values
	}
	for r, row := range params {
		if row == nil {
			return nil, fmt.Errorf(
				"%w: probability block for %q misses configuration %d",
				ErrInvalidFormat, child.Label, r,
			)
		}
	}
	return params, nil
}

// WriteCatBN writes a categorical Bayesian network as a BIF network
// declaration, the inverse of ReadCatBN.
func WriteCatBN(w io.Writer, bn *models.CatBN) error {
	var sb strings.Builder
	sb.WriteString("network unnamed {\n}\n")

	for _, v := range bn.Variables() {
		sb.WriteString(fmt.Sprintf("variable %s {\n", v.Label))
		sb.WriteString(fmt.Sprintf("  type discrete [ %d ] { %s };\n", len(v.States), strings.Join(v.States, ", ")))
		sb.WriteString("}\n")
	}

	labels := bn.Labels()
	for i, label := range labels {
		cpd := bn.CPD(i)
		conditioning := cpd.ConditioningLabels()
		if len(conditioning) == 0 {
			sb.WriteString(fmt.Sprintf("probability ( %s ) {\n", label))
		} else {
			sb.WriteString(fmt.Sprintf("probability ( %s | %s ) {\n", label, strings.Join(conditioning, ", ")))
		}
		flat := make([]string, 0)
		for _, row := range cpd.Parameters() {
			for _, p := range row {
				flat = append(flat, strconv.FormatFloat(p, 'g', -1, 64))
			}
		}
		sb.WriteString(fmt.Sprintf("  table %s;\n}\n", strings.Join(flat, ", ")))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
