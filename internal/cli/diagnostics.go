// Package cli carries small helpers shared by the nightcan commands.
package cli

import (
	"github.com/lhre/nightcan/pkg/catalog"
	"github.com/lhre/nightcan/pkg/logger"
)

// ReportDiagnostics logs parse diagnostics at the level matching their
// severity and returns the number of error-level entries.
func ReportDiagnostics(log *logger.Logger, diags []catalog.Diagnostic) int {
	errors := 0
	for _, d := range diags {
		fields := []logger.Field{
			logger.Int("row", d.Row),
			logger.String("field", d.Field),
		}
		switch d.Severity {
		case catalog.SeverityInfo:
			log.Debug(d.Message, fields...)
		case catalog.SeverityWarning:
			log.Warn(d.Message, fields...)
		default:
			errors++
			log.Error(d.Message, fields...)
		}
	}
	return errors
}
