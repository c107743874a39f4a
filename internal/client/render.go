package client

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/okian/creditscore/internal/domain/model"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Formats lists the accepted values for --format.
var Formats = []string{FormatTable, FormatJSON, FormatYAML}

const clientsPerRow = 6

// Renderer writes results to a terminal.
type Renderer struct {
	out    io.Writer
	format string

	accepted *color.Color
	rejected *color.Color
	warning  *color.Color
	failure  *color.Color
	faint    *color.Color
}

// NewRenderer returns a Renderer for the given format. Unknown formats fall
// back to table. Colors are disabled when colored is false.
func NewRenderer(out io.Writer, format string, colored bool) *Renderer {
	if !lo.Contains(Formats, format) {
		format = FormatTable
	}
	r := &Renderer{
		out:      out,
		format:   format,
		accepted: color.New(color.FgGreen, color.Bold),
		rejected: color.New(color.FgRed, color.Bold),
		warning:  color.New(color.FgYellow),
		failure:  color.New(color.FgRed),
		faint:    color.New(color.Faint),
	}
	if !colored {
		for _, c := range []*color.Color{r.accepted, r.rejected, r.warning, r.failure, r.faint} {
			c.DisableColor()
		}
	}
	return r
}

// Prediction renders a scoring result.
func (r *Renderer) Prediction(res *Result) error {
	switch r.format {
	case FormatJSON:
		return r.json(res.Raw)
	case FormatYAML:
		return r.yaml(res.Prediction)
	}

	p := res.Prediction
	decision := r.accepted
	if model.Decision(p.Decision).Rejected() {
		decision = r.rejected
	}

	fmt.Fprintf(r.out, "Client       : %d\n", p.ClientID)
	fmt.Fprintf(r.out, "Decision     : %s\n", decision.Sprint(strings.ToUpper(p.Decision)))
	fmt.Fprintf(r.out, "Default risk : %s\n", strconv.FormatFloat(p.Probability, 'f', 4, 64))
	fmt.Fprintln(r.out, r.faint.Sprint("Raw response:"))
	return r.json(res.Raw)
}

// Clients renders the identifier list.
func (r *Renderer) Clients(ids []int64) error {
	switch r.format {
	case FormatJSON:
		data, err := json.Marshal(ids)
		if err != nil {
			return fmt.Errorf("encode clients: %w", err)
		}
		return r.json(data)
	case FormatYAML:
		return r.yaml(ids)
	}

	if len(ids) == 0 {
		fmt.Fprintln(r.out, r.warning.Sprint("No clients available."))
		return nil
	}

	table := tablewriter.NewWriter(r.out)
	table.SetHeader(lo.Times(clientsPerRow, func(i int) string {
		return fmt.Sprintf("#%d", i+1)
	}))
	for _, chunk := range lo.Chunk(ids, clientsPerRow) {
		row := lo.Map(chunk, func(id int64, _ int) string {
			return strconv.FormatInt(id, 10)
		})
		for len(row) < clientsPerRow {
			row = append(row, "")
		}
		table.Append(row)
	}
	table.Render()
	fmt.Fprintf(r.out, "%d clients\n", len(ids))
	return nil
}

// Error renders a failure with a hint matching its cause.
func (r *Renderer) Error(err error, baseURL string) {
	var apiErr *APIError
	switch {
	case errors.Is(err, ErrNotFound) && errors.As(err, &apiErr):
		fmt.Fprintln(r.out, r.warning.Sprintf("Client not found: %s", apiErr.Detail))
	case errors.Is(err, ErrConnection):
		r.Unreachable(baseURL)
	case errors.As(err, &apiErr):
		fmt.Fprintln(r.out, r.failure.Sprintf("Service error %d: %s", apiErr.Status, apiErr.Body))
	case errors.Is(err, ErrMalformedResponse):
		fmt.Fprintln(r.out, r.failure.Sprintf("Unexpected response from service: %v", err))
	default:
		fmt.Fprintln(r.out, r.failure.Sprintf("Error: %v", err))
	}
}

// Unreachable warns that the service cannot be contacted.
func (r *Renderer) Unreachable(baseURL string) {
	fmt.Fprintln(r.out, r.warning.Sprintf("Cannot reach the scoring service at %s.", baseURL))
	fmt.Fprintln(r.out, r.faint.Sprint("Check that the service is running there, or set --url / SCORING_API_URL."))
}

// Warn prints a highlighted notice.
func (r *Renderer) Warn(msg string) {
	fmt.Fprintln(r.out, r.warning.Sprint(msg))
}

func (r *Renderer) json(raw []byte) error {
	var buf bytes.Buffer
	if err := jsonIndent(&buf, raw); err != nil {
		// Show what the service sent even when it is not JSON.
		buf.Reset()
		buf.Write(raw)
	}
	buf.WriteByte('\n')
	_, err := r.out.Write(buf.Bytes())
	return err
}

func (r *Renderer) yaml(v any) error {
	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

func jsonIndent(buf *bytes.Buffer, raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	buf.Write(data)
	return nil
}
