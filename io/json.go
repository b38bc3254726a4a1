package io

import (
	"fmt"

	json "github.com/goccy/go-json"
	"gonum.org/v1/gonum/mat"

	"github.com/JohnPierman/pgmgo/data"
	"github.com/JohnPierman/pgmgo/factors"
	"github.com/JohnPierman/pgmgo/graph"
	"github.com/JohnPierman/pgmgo/models"
)

// Type discriminators of the JSON codec.
const (
	TypeDiGraph    = "digraph"
	TypeUnGraph    = "ungraph"
	TypeCatCPD     = "catcpd"
	TypeGaussCPD   = "gausscpd"
	TypeCatCIM     = "catcim"
	TypeCatBN      = "catbn"
	TypeGaussBN    = "gaussbn"
	TypeCatCTBN    = "catctbn"
	TypeGaussStats = "gausscpds"
)

type jsonVariable struct {
	Label  string   `json:"label"`
	States []string `json:"states"`
}

func toJSONVariables(vars []data.Variable) []jsonVariable {
	out := make([]jsonVariable, len(vars))
	for i, v := range vars {
		out[i] = jsonVariable{Label: v.Label, States: v.States}
	}
	return out
}

func fromJSONVariables(vars []jsonVariable) []data.Variable {
	out := make([]data.Variable, len(vars))
	for i, v := range vars {
		out[i] = data.Variable{Label: v.Label, States: v.States}
	}
	return out
}

type jsonGraph struct {
	Type   string    `json:"type"`
	Labels *[]string `json:"labels"`
	Edges  *[][2]int `json:"edges"`
}

// MarshalDiGraph encodes a directed graph.
func MarshalDiGraph(g *graph.DiGraph) ([]byte, error) {
	labels, edges := g.Labels(), g.Edges()
	return json.Marshal(jsonGraph{Type: TypeDiGraph, Labels: &labels, Edges: &edges})
}

// UnmarshalDiGraph decodes a directed graph, rejecting documents with a
// mismatched type discriminator or missing fields.
func UnmarshalDiGraph(b []byte) (*graph.DiGraph, error) {
	var doc jsonGraph
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if doc.Type != TypeDiGraph {
		return nil, fmt.Errorf("%w: %q", ErrTypeMismatch, doc.Type)
	}
	if doc.Labels == nil || doc.Edges == nil {
		return nil, fmt.Errorf("%w: labels, edges", ErrMissingField)
	}
	g, err := graph.NewDiGraph(*doc.Labels)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	for _, e := range *doc.Edges {
		if err := g.AddEdge(e[0], e[1]); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
	}
	return g, nil
}

// MarshalUnGraph encodes an undirected graph.
func MarshalUnGraph(g *graph.UnGraph) ([]byte, error) {
	labels, edges := g.Labels(), g.Edges()
	return json.Marshal(jsonGraph{Type: TypeUnGraph, Labels: &labels, Edges: &edges})
}

// UnmarshalUnGraph decodes an undirected graph.
func UnmarshalUnGraph(b []byte) (*graph.UnGraph, error) {
	var doc jsonGraph
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if doc.Type != TypeUnGraph {
		return nil, fmt.Errorf("%w: %q", ErrTypeMismatch, doc.Type)
	}
	if doc.Labels == nil || doc.Edges == nil {
		return nil, fmt.Errorf("%w: labels, edges", ErrMissingField)
	}
	g, err := graph.NewUnGraph(*doc.Labels)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	for _, e := range *doc.Edges {
		if err := g.AddEdge(e[0], e[1]); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
	}
	return g, nil
}

type jsonCatCPD struct {
	Type         string          `json:"type"`
	Response     *[]jsonVariable `json:"response"`
	Conditioning *[]jsonVariable `json:"conditioning"`
	Parameters   *[][]float64    `json:"parameters"`
}

// MarshalCatCPD encodes a categorical CPD.
func MarshalCatCPD(c *factors.CatCPD) ([]byte, error) {
	response := toJSONVariables(c.ResponseVariables())
	conditioning := toJSONVariables(c.ConditioningVariables())
	params := c.Parameters()
	return json.Marshal(jsonCatCPD{
		Type:         TypeCatCPD,
		Response:     &response,
		Conditioning: &conditioning,
		Parameters:   &params,
	})
}

// UnmarshalCatCPD decodes a categorical CPD.
func UnmarshalCatCPD(b []byte) (*factors.CatCPD, error) {
	var doc jsonCatCPD
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if doc.Type != TypeCatCPD {
		return nil, fmt.Errorf("%w: %q", ErrTypeMismatch, doc.Type)
	}
	if doc.Response == nil || doc.Conditioning == nil || doc.Parameters == nil {
		return nil, fmt.Errorf("%w: response, conditioning, parameters", ErrMissingField)
	}
	cpd, err := factors.NewCatCPD(
		fromJSONVariables(*doc.Response),
		fromJSONVariables(*doc.Conditioning),
		*doc.Parameters,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return cpd, nil
}

type jsonGaussCPD struct {
	Type         string       `json:"type"`
	Labels       *[]string    `json:"labels"`
	Conditioning *[]string    `json:"conditioning"`
	Coefficients *[][]float64 `json:"coefficients"`
	Intercept    *[]float64   `json:"intercept"`
	Covariance   *[][]float64 `json:"covariance"`
}

// MarshalGaussCPD encodes a linear Gaussian CPD.
func MarshalGaussCPD(c *factors.GaussCPD) ([]byte, error) {
	labels, conditioning := c.Labels(), c.ConditioningLabels()
	coefficients := denseToRows(c.Coefficients())
	intercept := c.Intercept()
	covariance := symToRows(c.Covariance())
	return json.Marshal(jsonGaussCPD{
		Type:         TypeGaussCPD,
		Labels:       &labels,
		Conditioning: &conditioning,
		Coefficients: &coefficients,
		Intercept:    &intercept,
		Covariance:   &covariance,
	})
}

// UnmarshalGaussCPD decodes a linear Gaussian CPD.
func UnmarshalGaussCPD(b []byte) (*factors.GaussCPD, error) {
	var doc jsonGaussCPD
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if doc.Type != TypeGaussCPD {
		return nil, fmt.Errorf("%w: %q", ErrTypeMismatch, doc.Type)
	}
	if doc.Labels == nil || doc.Conditioning == nil || doc.Intercept == nil || doc.Covariance == nil {
		return nil, fmt.Errorf("%w: labels, conditioning, intercept, covariance", ErrMissingField)
	}
	var coefficients *mat.Dense
	if doc.Coefficients != nil {
		coefficients = rowsToDense(*doc.Coefficients)
	}
	covariance, err := rowsToSym(*doc.Covariance)
	if err != nil {
		return nil, err
	}
	cpd, err := factors.NewGaussCPD(*doc.Labels, *doc.Conditioning, coefficients, *doc.Intercept, covariance)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return cpd, nil
}

func denseToRows(m *mat.Dense) [][]float64 {
	if m == nil {
		return nil
	}
	rows, cols := m.Dims()
	out := make([][]float64, rows)
	for r := 0; r < rows; r++ {
		out[r] = make([]float64, cols)
		for c := 0; c < cols; c++ {
			out[r][c] = m.At(r, c)
		}
	}
	return out
}

func rowsToDense(rows [][]float64) *mat.Dense {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil
	}
	out := mat.NewDense(len(rows), len(rows[0]), nil)
	for r, row := range rows {
		out.SetRow(r, row)
	}
	return out
}

func symToRows(m *mat.SymDense) [][]float64 {
	n := m.SymmetricDim()
	out := make([][]float64, n)
	for r := 0; r < n; r++ {
		out[r] = make([]float64, n)
		for c := 0; c < n; c++ {
			out[r][c] = m.At(r, c)
		}
	}
	return out
}

func rowsToSym(rows [][]float64) (*mat.SymDense, error) {
	n := len(rows)
	out := mat.NewSymDense(n, nil)
	for r, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("%w: covariance row %d has %d entries", ErrInvalidFormat, r, len(row))
		}
		for c := r; c < n; c++ {
			out.SetSym(r, c, row[c])
		}
	}
	return out, nil
}

type jsonCatCIM struct {
	Type         string          `json:"type"`
	Response     *jsonVariable   `json:"response"`
	Conditioning *[]jsonVariable `json:"conditioning"`
	Parameters   *[][][]float64  `json:"parameters"`
}

// MarshalCatCIM encodes a conditional intensity matrix.
func MarshalCatCIM(c *factors.CatCIM) ([]byte, error) {
	response := c.ResponseVariable()
	jv := jsonVariable{Label: response.Label, States: response.States}
	conditioning := toJSONVariables(c.ConditioningVariables())
	params := c.Parameters()
	return json.Marshal(jsonCatCIM{
		Type:         TypeCatCIM,
		Response:     &jv,
		Conditioning: &conditioning,
		Parameters:   &params,
	})
}

// UnmarshalCatCIM decodes a conditional intensity matrix.
func UnmarshalCatCIM(b []byte) (*factors.CatCIM, error) {
	var doc jsonCatCIM
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if doc.Type != TypeCatCIM {
		return nil, fmt.Errorf("%w: %q", ErrTypeMismatch, doc.Type)
	}
	if doc.Response == nil || doc.Conditioning == nil || doc.Parameters == nil {
		return nil, fmt.Errorf("%w: response, conditioning, parameters", ErrMissingField)
	}
	cim, err := factors.NewCatCIM(
		data.Variable{Label: doc.Response.Label, States: doc.Response.States},
		fromJSONVariables(*doc.Conditioning),
		*doc.Parameters,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return cim, nil
}

type jsonCatBN struct {
	Type  string             `json:"type"`
	Graph *json.RawMessage   `json:"graph"`
	CPDs  *[]json.RawMessage `json:"cpds"`
}

// MarshalCatBN encodes a categorical Bayesian network.
func MarshalCatBN(m *models.CatBN) ([]byte, error) {
	return marshalCatBNAs(m, TypeCatBN)
}

func marshalCatBNAs(m *models.CatBN, discriminator string) ([]byte, error) {
	rawGraph, err := MarshalDiGraph(m.Graph())
	if err != nil {
		return nil, err
	}
	cpds := make([]json.RawMessage, 0, len(m.CPDs()))
	for _, cpd := range m.CPDs() {
		raw, err := MarshalCatCPD(cpd)
		if err != nil {
			return nil, err
		}
		cpds = append(cpds, raw)
	}
	rg := json.RawMessage(rawGraph)
	return json.Marshal(jsonCatBN{Type: discriminator, Graph: &rg, CPDs: &cpds})
}

// UnmarshalCatBN decodes a categorical Bayesian network.
func UnmarshalCatBN(b []byte) (*models.CatBN, error) {
	return unmarshalCatBNAs(b, TypeCatBN)
}

func unmarshalCatBNAs(b []byte, discriminator string) (*models.CatBN, error) {
	var doc jsonCatBN
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if doc.Type != discriminator {
		return nil, fmt.Errorf("%w: %q", ErrTypeMismatch, doc.Type)
	}
	if doc.Graph == nil || doc.CPDs == nil {
		return nil, fmt.Errorf("%w: graph, cpds", ErrMissingField)
	}
	g, err := UnmarshalDiGraph(*doc.Graph)
	if err != nil {
		return nil, err
	}
	cpds := make([]*factors.CatCPD, 0, len(*doc.CPDs))
	for _, raw := range *doc.CPDs {
		cpd, err := UnmarshalCatCPD(raw)
		if err != nil {
			return nil, err
		}
		cpds = append(cpds, cpd)
	}
	bn, err := models.NewCatBN(g, cpds)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return bn, nil
}

type jsonGaussBN struct {
	Type  string             `json:"type"`
	Graph *json.RawMessage   `json:"graph"`
	CPDs  *[]json.RawMessage `json:"cpds"`
}

// MarshalGaussBN encodes a Gaussian Bayesian network.
func MarshalGaussBN(m *models.GaussBN) ([]byte, error) {
	rawGraph, err := MarshalDiGraph(m.Graph())
	if err != nil {
		return nil, err
	}
	cpds := make([]json.RawMessage, 0, len(m.CPDs()))
	for _, cpd := range m.CPDs() {
		raw, err := MarshalGaussCPD(cpd)
		if err != nil {
			return nil, err
		}
		cpds = append(cpds, raw)
	}
	rg := json.RawMessage(rawGraph)
	return json.Marshal(jsonGaussBN{Type: TypeGaussBN, Graph: &rg, CPDs: &cpds})
}

// UnmarshalGaussBN decodes a Gaussian Bayesian network.
func UnmarshalGaussBN(b []byte) (*models.GaussBN, error) {
	var doc jsonGaussBN
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if doc.Type != TypeGaussBN {
		return nil, fmt.Errorf("%w: %q", ErrTypeMismatch, doc.Type)
	}
	if doc.Graph == nil || doc.CPDs == nil {
		return nil, fmt.Errorf("%w: graph, cpds", ErrMissingField)
	}
	g, err := UnmarshalDiGraph(*doc.Graph)
	if err != nil {
		return nil, err
	}
	cpds := make([]*factors.GaussCPD, 0, len(*doc.CPDs))
	for _, raw := range *doc.CPDs {
		cpd, err := UnmarshalGaussCPD(raw)
		if err != nil {
			return nil, err
		}
		cpds = append(cpds, cpd)
	}
	bn, err := models.NewGaussBN(g, cpds)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return bn, nil
}

type jsonCatCTBN struct {
	Type    string             `json:"type"`
	Graph   *json.RawMessage   `json:"graph"`
	CIMs    *[]json.RawMessage `json:"cims"`
	Initial *json.RawMessage   `json:"initial_distribution"`
}

// MarshalCatCTBN encodes a categorical continuous-time Bayesian network.
func MarshalCatCTBN(m *models.CatCTBN) ([]byte, error) {
	rawGraph, err := MarshalDiGraph(m.Graph())
	if err != nil {
		return nil, err
	}
	cims := make([]json.RawMessage, 0, len(m.CIMs()))
	for _, cim := range m.CIMs() {
		raw, err := MarshalCatCIM(cim)
		if err != nil {
			return nil, err
		}
		cims = append(cims, raw)
	}
	rawInitial, err := MarshalCatBN(m.InitialDistribution())
	if err != nil {
		return nil, err
	}
	rg := json.RawMessage(rawGraph)
	ri := json.RawMessage(rawInitial)
	return json.Marshal(jsonCatCTBN{Type: TypeCatCTBN, Graph: &rg, CIMs: &cims, Initial: &ri})
}

// UnmarshalCatCTBN decodes a categorical continuous-time Bayesian
// network.
func UnmarshalCatCTBN(b []byte) (*models.CatCTBN, error) {
	var doc jsonCatCTBN
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if doc.Type != TypeCatCTBN {
		return nil, fmt.Errorf("%w: %q", ErrTypeMismatch, doc.Type)
	}
	if doc.Graph == nil || doc.CIMs == nil || doc.Initial == nil {
		return nil, fmt.Errorf("%w: graph, cims, initial_distribution", ErrMissingField)
	}
	g, err := UnmarshalDiGraph(*doc.Graph)
	if err != nil {
		return nil, err
	}
	cims := make([]*factors.CatCIM, 0, len(*doc.CIMs))
	for _, raw := range *doc.CIMs {
		cim, err := UnmarshalCatCIM(raw)
		if err != nil {
			return nil, err
		}
		cims = append(cims, cim)
	}
	initial, err := UnmarshalCatBN(*doc.Initial)
	if err != nil {
		return nil, err
	}
	ctbn, err := models.NewCatCTBN(g, cims, models.WithInitialDistribution(initial))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return ctbn, nil
}

type jsonGaussStats struct {
	Type *string      `json:"type"`
	MuX  *[]float64   `json:"mu_x"`
	MuZ  *[]float64   `json:"mu_z"`
	Mxx  *[][]float64 `json:"m_xx"`
	Mxz  *[][]float64 `json:"m_xz"`
	Mzz  *[][]float64 `json:"m_zz"`
	N    *float64     `json:"n"`
}

// MarshalGaussStats encodes Gaussian sufficient statistics.
func MarshalGaussStats(s *factors.GaussStats) ([]byte, error) {
	discriminator := TypeGaussStats
	mxx := denseToRows(s.Mxx)
	mxz := denseToRows(s.Mxz)
	mzz := denseToRows(s.Mzz)
	return json.Marshal(jsonGaussStats{
		Type: &discriminator,
		MuX:  &s.MuX,
		MuZ:  &s.MuZ,
		Mxx:  &mxx,
		Mxz:  &mxz,
		Mzz:  &mzz,
		N:    &s.N,
	})
}

// UnmarshalGaussStats decodes Gaussian sufficient statistics.
func UnmarshalGaussStats(b []byte) (*factors.GaussStats, error) {
	var doc jsonGaussStats
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if doc.Type == nil || *doc.Type != TypeGaussStats {
		return nil, fmt.Errorf("%w: gaussian statistics", ErrTypeMismatch)
	}
	if doc.MuX == nil || doc.MuZ == nil || doc.N == nil {
		return nil, fmt.Errorf("%w: mu_x, mu_z, n", ErrMissingField)
	}
	out := &factors.GaussStats{MuX: *doc.MuX, MuZ: *doc.MuZ, N: *doc.N}
	if doc.Mxx != nil {
		out.Mxx = rowsToDense(*doc.Mxx)
	}
	if doc.Mxz != nil {
		out.Mxz = rowsToDense(*doc.Mxz)
	}
	if doc.Mzz != nil {
		out.Mzz = rowsToDense(*doc.Mzz)
	}
	return out, nil
}
