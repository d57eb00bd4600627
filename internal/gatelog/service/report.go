package service

import (
	"strings"
	"time"

	"github.com/BrandonDHaskell/gatelog/internal/gatelog/types"
)

const (
	DefaultReportPrefix = "UAG_RELATORIO"

	reportTimeLayout = "02/01/2006 15:04:05"
	reportDateLayout = "2006-01-02"
)

var reportHeader = []string{
	"Data/Hora", "Tipo", "Frota", "Colaborador", "Código", "Destino", "Material", "Observação",
}

// ReportName is the CSV file name for an export made at `at`, with day
// granularity in loc.
func ReportName(prefix string, at time.Time, loc *time.Location) string {
	if prefix == "" {
		prefix = DefaultReportPrefix
	}
	if loc == nil {
		loc = time.Local
	}
	return prefix + "_" + at.In(loc).Format(reportDateLayout) + ".csv"
}

// RenderReport builds the CSV report in record order.  Free-text columns
// are always quoted so delimiters, quotes and line breaks inside them need
// no further escaping; the timestamp, type and material columns are fixed
// tokens and stay bare.  Lines are separated by "\n" with no trailing
// newline.
func RenderReport(records []types.AccessRecord, loc *time.Location) []byte {
	if loc == nil {
		loc = time.Local
	}

	var b strings.Builder
	b.WriteString(strings.Join(reportHeader, ","))

	for _, r := range records {
		b.WriteByte('\n')
		b.WriteString(r.Timestamp.In(loc).Format(reportTimeLayout))
		b.WriteByte(',')
		b.WriteString(string(r.Type))
		for _, field := range []string{r.FleetNumber, r.CollaboratorName, r.CollaboratorCode, r.Destination} {
			b.WriteByte(',')
			writeQuoted(&b, field)
		}
		b.WriteByte(',')
		b.WriteString(materialToken(r.MaterialExit))
		b.WriteByte(',')
		writeQuoted(&b, r.Observation)
	}
	return []byte(b.String())
}

func materialToken(exit bool) string {
	if exit {
		return "SIM"
	}
	return "NÃO"
}

func writeQuoted(b *strings.Builder, s string) {
	b.WriteByte('"')
	b.WriteString(strings.ReplaceAll(s, `"`, `""`))
	b.WriteByte('"')
}
