package formats

import (
	"fmt"
	"strings"
)

// GenerateTSV renders one diagnostic per row.
func GenerateTSV(r Report) (string, error) {
	var buf strings.Builder

	buf.WriteString("File\tLine\tColumn\tRule\tFeature\tSupport\tMessage\n")
	for _, d := range r.Diagnostics {
		buf.WriteString(fmt.Sprintf("%s\t%d\t%d\t%s\t%s\t%s\t%s\n",
			d.Path,
			d.Line,
			d.Column,
			d.RuleID,
			d.FeatureID,
			d.Tier,
			tsvField(d.Message),
		))
	}

	return buf.String(), nil
}

func tsvField(s string) string {
	return strings.NewReplacer("\t", " ", "\n", " ").Replace(s)
}
