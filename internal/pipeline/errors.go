package pipeline

import "github.com/rotisserie/eris"

// ErrSourceDataUnavailable marks a region whose source shapefile is
// missing or unreadable. Callers check for it with errors.Is and may
// continue with the other region.
var ErrSourceDataUnavailable = eris.New("pipeline: source data unavailable")
