package attribution

import (
	"fmt"

	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/warehouse"
)

// Model is an attribution model: the rule for assigning conversion credit to
// marketing touchpoints.
type Model string

const (
	ModelFirstClick    Model = "first_click"
	ModelLastClick     Model = "last_click"
	ModelLastPaidClick Model = "last_paid_click"
	ModelLinearAll     Model = "linear_all"
	ModelLinearPaid    Model = "linear_paid"
	ModelAllClicks     Model = "all_clicks"
)

// modelSources maps each model to the pre-aggregated source holding orders
// credited under it. Bijective; resolved through SourceFor only.
var modelSources = map[Model]warehouse.SourceID{
	ModelFirstClick:    "ORDERS_ATTR_FIRST_CLICK",
	ModelLastClick:     "ORDERS_ATTR_LAST_CLICK",
	ModelLastPaidClick: "ORDERS_ATTR_LAST_PAID_CLICK",
	ModelLinearAll:     "ORDERS_ATTR_LINEAR_ALL",
	ModelLinearPaid:    "ORDERS_ATTR_LINEAR_PAID",
	ModelAllClicks:     "ORDERS_ATTR_ALL_CLICKS",
}

// EventSource is the single source for event-based attribution. Event-based
// credit has no window; the source always carries lifetime semantics, so it
// sits outside the model routing above.
const EventSource warehouse.SourceID = "TOUCHPOINTS_LIFETIME"

// ParseModel validates a raw model string.
func ParseModel(s string) (Model, error) {
	m := Model(s)
	if _, ok := modelSources[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownModel, s)
	}
	return m, nil
}

// SourceFor resolves the attribution source for a model. An unrecognized
// model is a hard error, never a silent default onto another model's source.
func SourceFor(m Model) (warehouse.SourceID, error) {
	src, ok := modelSources[m]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownModel, string(m))
	}
	return src, nil
}

// Window is an order-based attribution window: the maximum days between a
// touchpoint and the conversion for the touchpoint to receive credit.
// Event-based attribution has no window and never consults these values.
type Window string

const (
	Window1Day     Window = "1"
	Window7Day     Window = "7"
	Window14Day    Window = "14"
	Window28Day    Window = "28"
	Window30Day    Window = "30"
	Window90Day    Window = "90"
	WindowLifetime Window = "lifetime"
)

var validWindows = map[Window]bool{
	Window1Day:     true,
	Window7Day:     true,
	Window14Day:    true,
	Window28Day:    true,
	Window30Day:    true,
	Window90Day:    true,
	WindowLifetime: true,
}

// ParseWindow validates a raw window string. Empty means lifetime.
func ParseWindow(s string) (Window, error) {
	if s == "" {
		return WindowLifetime, nil
	}
	w := Window(s)
	if !validWindows[w] {
		return "", fmt.Errorf("%w: %q", ErrUnknownWindow, s)
	}
	return w, nil
}
