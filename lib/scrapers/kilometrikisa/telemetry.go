package kilometrikisa

import (
	"kilometrikisa/lib/telemetry"
)

var tracer = telemetry.Tracer("kilometrikisa.lib.scrapers.kilometrikisa")
