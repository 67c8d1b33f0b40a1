package transformer

import (
	"encoding/json"
	"time"

	"github.com/BenB289/BMGPanel/constants"
)

// Resource is a serialized entity or relationship. It is one of *Item,
// *Collection or Null. A relationship that was not requested has no Resource
// at all.
type Resource interface {
	resource()
}

// Item is a single transformed entity.
type Item struct {
	Object     string      `json:"object"`
	Attributes interface{} `json:"attributes"`
}

func (*Item) resource() {}

// Collection is a list of transformed entities.
type Collection struct {
	Object string  `json:"object"`
	Data   []*Item `json:"data"`
}

func (*Collection) resource() {}

// NewCollection wraps items in a list object. A nil slice is rendered as an
// empty list.
func NewCollection(items []*Item) *Collection {
	if items == nil {
		items = []*Item{}
	}
	return &Collection{Object: "list", Data: items}
}

type nullResource struct{}

func (nullResource) resource() {}

func (nullResource) MarshalJSON() ([]byte, error) {
	return []byte(`{"object":"null_resource","attributes":null}`), nil
}

// Null is the resource of a relationship that was requested but is empty or
// not visible to the caller.
var Null Resource = nullResource{}

// IsNull reports whether r is the Null resource.
func IsNull(r Resource) bool {
	_, ok := r.(nullResource)
	return ok
}

// Marshal encodes a resource. The output is deterministic for equal input.
func Marshal(r Resource) ([]byte, error) {
	return json.Marshal(r)
}

// FormatTimestamp renders t in UTC with the API timestamp layout. A zero time
// renders as null.
func FormatTimestamp(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.UTC().Format(constants.TimestampFormat)
	return &s
}
