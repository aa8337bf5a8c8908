package ast

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"fortio.org/safecast"

	"aasify/internal/source"
)

// ErrMalformed reports input that is not a serialized AST.
var ErrMalformed = errors.New("ast: malformed document")

const (
	keyType       = "$type"
	keyRefText    = "$refText"
	keyTextRegion = "$textRegion"
	keyName       = "name"
)

// field keeps object members in document order; child order in the AST
// follows it.
type field struct {
	key string
	val any
}

type object []field

func (o object) get(key string) (any, bool) {
	for _, f := range o {
		if f.key == key {
			return f.val, true
		}
	}
	return nil, false
}

func (o object) str(key string) (string, bool) {
	v, ok := o.get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Decode builds a Document from the JSON form written by the parser's
// serializer: nodes are objects tagged with "$type", references are objects
// carrying "$refText", and an optional "$textRegion" {offset, end} gives spans.
func Decode(id string, file source.FileID, version uint64, data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := readValue(dec, 1)
	if errors.Is(err, ErrTooDeep) {
		return nil, fmt.Errorf("%w: %s: JSON nesting exceeds %d", ErrTooDeep, id, maxJSONDepth)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, id, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s: trailing data after root node", ErrMalformed, id)
	}
	obj, ok := v.(object)
	if !ok {
		return nil, fmt.Errorf("%w: %s: root is not an object", ErrMalformed, id)
	}
	tag, ok := obj.str(keyType)
	if !ok || tag == "" {
		return nil, fmt.Errorf("%w: %s: root has no %s", ErrMalformed, id, keyType)
	}

	doc := NewDocument(id, file, version)
	root := doc.SetRoot(kindOf(tag), tag)
	if err := fill(doc, root, obj, 1); err != nil {
		return nil, err
	}
	return doc, nil
}

func kindOf(tag string) Kind {
	if k, ok := ParseKind(tag); ok {
		return k
	}
	return KindProperty
}

func isNode(obj object) bool {
	tag, ok := obj.str(keyType)
	return ok && tag != ""
}

func fill(doc *Document, id NodeID, obj object, depth int) error {
	if depth > MaxDepth {
		return fmt.Errorf("%w: %s at %s", ErrTooDeep, doc.ID, doc.Path(id))
	}
	n := doc.Node(id)
	if name, ok := obj.str(keyName); ok && n.Kind.Named() {
		doc.SetName(id, name)
	}
	if region, ok := obj.get(keyTextRegion); ok {
		doc.Node(id).Span = spanOf(doc.File, region)
	}
	for _, f := range obj {
		if strings.HasPrefix(f.key, "$") || f.key == keyName {
			continue
		}
		switch val := f.val.(type) {
		case object:
			if err := member(doc, id, f.key, -1, val, depth); err != nil {
				return err
			}
		case []any:
			for i, el := range val {
				elObj, ok := el.(object)
				if !ok {
					continue
				}
				if err := member(doc, id, f.key, i, elObj, depth); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func member(doc *Document, parent NodeID, property string, index int, obj object, depth int) error {
	if isNode(obj) {
		tag, _ := obj.str(keyType)
		child := doc.Append(parent, property, index, kindOf(tag), tag)
		return fill(doc, child, obj, depth+1)
	}
	if text, ok := obj.str(keyRefText); ok {
		ref := Reference{Property: property, Index: index, Text: text}
		if region, ok := obj.get(keyTextRegion); ok {
			ref.Span = spanOf(doc.File, region)
		}
		doc.AddRef(parent, ref)
	}
	return nil
}

func spanOf(file source.FileID, v any) source.Span {
	obj, ok := v.(object)
	if !ok {
		return source.Span{File: file}
	}
	return source.Span{
		File:  file,
		Start: offsetOf(obj, "offset"),
		End:   offsetOf(obj, "end"),
	}
}

func offsetOf(obj object, key string) uint32 {
	v, ok := obj.get(key)
	if !ok {
		return 0
	}
	num, ok := v.(json.Number)
	if !ok {
		return 0
	}
	i, err := num.Int64()
	if err != nil {
		return 0
	}
	off, err := safecast.Conv[uint32](i)
	if err != nil {
		return 0
	}
	return off
}

// maxJSONDepth bounds raw nesting while reading. A node level takes an object
// and at most one list, so valid documents stay below it.
const maxJSONDepth = 2*MaxDepth + 1

func readValue(dec *json.Decoder, depth int) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	if depth > maxJSONDepth {
		return nil, ErrTooDeep
	}
	switch delim {
	case '{':
		obj := object{}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected object key %v", keyTok)
			}
			val, err := readValue(dec, depth+1)
			if err != nil {
				return nil, err
			}
			obj = append(obj, field{key: key, val: val})
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		arr := []any{}
		for dec.More() {
			val, err := readValue(dec, depth+1)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %v", delim)
	}
}
