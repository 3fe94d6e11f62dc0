// fastview streams server side views to a page: a data model is converted to a view-model,
// multiplexed to one or more views, and each view emits element updates that are published
// to the page over a websocket.
package fastview

import (
	"html/template"
)

// TextContent is the reserved Op key that sets an element's text instead of an attribute.
const TextContent = "textContent"

// EleUpdate is an element identifier and a set of operations to apply to its attributes/content.
type EleUpdate struct {
	// The id by which to find the element
	EleId string
	// Op keys are attribute names or TextContent. ('x','123') sets attribute x to 123;
	// (TextContent,'abc') sets the element's textContent to abc.
	Ops []Op
}

// Op is a key and value. For example an html attribute and its new value.
type Op struct {
	Key   string
	Value string
}

// SetText is the update setting an element's text.
func SetText(eleID, text string) EleUpdate {
	return EleUpdate{EleId: eleID, Ops: []Op{{Key: TextContent, Value: text}}}
}

// ViewComponent is a server side view: Parse adds its initial markup to a page template and
// Updates is the chan by which its element updates are notified.
type ViewComponent interface {
	Updates() <-chan []EleUpdate
	// Parse defines the view's template within parent, inheriting its func-map, and
	// returns the name under which it was defined.
	Parse(parent *template.Template) (string, error)
}
