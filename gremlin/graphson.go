package gremlin

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"math/big"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GraphSON mime types.
const (
	MimeGraphSONV2 = "application/vnd.gremlin-v2.0+json"
	MimeGraphSONV3 = "application/vnd.gremlin-v3.0+json"
)

// Serializer names accepted by SerializerFor.
const (
	SerializerGraphSONV2 = "graphsonv2"
	SerializerGraphSONV3 = "graphsonv3"
)

// Serializer converts messages to and from WebSocket frames.
type Serializer interface {
	// MimeType is written in front of every request frame.
	MimeType() string

	EncodeRequest(req *RequestMessage) ([]byte, error)
	DecodeRequest(frame []byte) (*RequestMessage, error)
	EncodeResponse(resp *ResponseMessage) ([]byte, error)
	DecodeResponse(data []byte) (*ResponseMessage, error)
}

// GraphSON implements Serializer for GraphSON 2.0 and 3.0.
type GraphSON struct {
	version int
}

// NewGraphSONV2 returns the GraphSON 2.0 serializer.
func NewGraphSONV2() *GraphSON { return &GraphSON{version: 2} }

// NewGraphSONV3 returns the GraphSON 3.0 serializer.
func NewGraphSONV3() *GraphSON { return &GraphSON{version: 3} }

// SerializerFor resolves a serializer by name or mime type. An empty name
// selects GraphSON 3.0.
//
//nolint:ireturn
func SerializerFor(name string) (Serializer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", SerializerGraphSONV3, "graphson3", "v3", MimeGraphSONV3:
		return NewGraphSONV3(), nil
	case SerializerGraphSONV2, "graphson2", "v2", MimeGraphSONV2:
		return NewGraphSONV2(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSerializer, name)
	}
}

// MimeType implements Serializer.
func (g *GraphSON) MimeType() string {
	if g.version == 2 {
		return MimeGraphSONV2
	}

	return MimeGraphSONV3
}

// SplitFrame separates the mime type prefix from a request frame.
func SplitFrame(frame []byte) (string, []byte, error) {
	if len(frame) == 0 {
		return "", nil, fmt.Errorf("%w: empty frame", ErrMalformedMessage)
	}

	n := int(frame[0])
	if len(frame) < n+1 {
		return "", nil, fmt.Errorf("%w: truncated mime type", ErrMalformedMessage)
	}

	return string(frame[1 : n+1]), frame[n+1:], nil
}

// EncodeRequest implements Serializer.
func (g *GraphSON) EncodeRequest(req *RequestMessage) ([]byte, error) {
	args := &object{}

	for _, k := range slices.Sorted(maps.Keys(req.Args)) {
		v, err := g.write(req.Args[k])
		if err != nil {
			return nil, fmt.Errorf("arg %s: %w", k, err)
		}

		args.add(k, v)
	}

	body := &object{}
	body.add("requestId", typed("g:UUID", req.RequestID.String()))
	body.add("op", req.Op)
	body.add("processor", req.Processor)
	body.add("args", args)

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	mime := g.MimeType()
	frame := make([]byte, 0, 1+len(mime)+len(payload))
	frame = append(frame, byte(len(mime)))
	frame = append(frame, mime...)

	return append(frame, payload...), nil
}

// DecodeRequest implements Serializer.
func (g *GraphSON) DecodeRequest(frame []byte) (*RequestMessage, error) {
	_, payload, err := SplitFrame(frame)
	if err != nil {
		return nil, err
	}

	root, err := parseJSON(payload)
	if err != nil {
		return nil, err
	}

	body, err := asObject(root)
	if err != nil {
		return nil, err
	}

	req := &RequestMessage{Args: make(map[string]any)}

	raw, _ := body.get("requestId")
	if req.RequestID, err = g.readUUID(raw); err != nil {
		return nil, err
	}

	op, _ := body.get("op")
	req.Op, _ = op.(string)
	processor, _ := body.get("processor")
	req.Processor, _ = processor.(string)

	if rawArgs, ok := body.get("args"); ok {
		args, err := asObject(rawArgs)
		if err != nil {
			return nil, err
		}

		for i, k := range args.keys {
			v, err := g.read(args.values[i])
			if err != nil {
				return nil, fmt.Errorf("arg %s: %w", k, err)
			}

			req.Args[k] = v
		}
	}

	return req, nil
}

// EncodeResponse implements Serializer.
func (g *GraphSON) EncodeResponse(resp *ResponseMessage) ([]byte, error) {
	attrs, err := g.write(orEmpty(resp.Status.Attributes))
	if err != nil {
		return nil, err
	}

	data, err := g.write(resp.Result.Data)
	if err != nil {
		return nil, err
	}

	meta, err := g.write(orEmpty(resp.Result.Meta))
	if err != nil {
		return nil, err
	}

	status := &object{}
	status.add("message", resp.Status.Message)
	status.add("code", int(resp.Status.Code))
	status.add("attributes", attrs)

	result := &object{}
	result.add("data", data)
	result.add("meta", meta)

	body := &object{}
	body.add("requestId", resp.RequestID.String())
	body.add("status", status)
	body.add("result", result)

	return json.Marshal(body)
}

// DecodeResponse implements Serializer.
func (g *GraphSON) DecodeResponse(data []byte) (*ResponseMessage, error) {
	root, err := parseJSON(data)
	if err != nil {
		return nil, err
	}

	body, err := asObject(root)
	if err != nil {
		return nil, err
	}

	resp := &ResponseMessage{}

	raw, _ := body.get("requestId")
	if resp.RequestID, err = g.readUUID(raw); err != nil {
		return nil, err
	}

	rawStatus, ok := body.get("status")
	if !ok {
		return nil, fmt.Errorf("%w: missing status", ErrMalformedMessage)
	}

	status, err := asObject(rawStatus)
	if err != nil {
		return nil, err
	}

	code, _ := status.get("code")

	n, err := g.readInt(code)
	if err != nil {
		return nil, fmt.Errorf("%w: status code: %w", ErrMalformedMessage, err)
	}

	resp.Status.Code = StatusCode(n)
	msg, _ := status.get("message")
	resp.Status.Message, _ = msg.(string)

	if attrs, ok := status.get("attributes"); ok {
		if resp.Status.Attributes, err = g.readStringMap(attrs); err != nil {
			return nil, err
		}
	}

	if rawResult, ok := body.get("result"); ok {
		result, err := asObject(rawResult)
		if err != nil {
			return nil, err
		}

		if d, ok := result.get("data"); ok {
			if resp.Result.Data, err = g.read(d); err != nil {
				return nil, err
			}
		}

		if m, ok := result.get("meta"); ok {
			if resp.Result.Meta, err = g.readStringMap(m); err != nil {
				return nil, err
			}
		}
	}

	return resp, nil
}

// -----------------------------------------------------------------------------
// Writing
// -----------------------------------------------------------------------------

type typedValue struct {
	Type  string `json:"@type"`
	Value any    `json:"@value"`
}

// writeUint writes values above math.MaxInt64 as gx:BigInteger.
func writeUint(x uint64) typedValue {
	if x > math.MaxInt64 {
		return typed("gx:BigInteger", json.Number(new(big.Int).SetUint64(x).String()))
	}

	return typed("g:Int64", int64(x)) //nolint:gosec // bounded above
}

func typed(t string, v any) typedValue {
	return typedValue{Type: t, Value: v}
}

//nolint:gocyclo,cyclop // one case per GraphSON type
func (g *GraphSON) write(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case bool, string:
		return x, nil
	case int:
		return typed("g:Int64", int64(x)), nil
	case int64:
		return typed("g:Int64", x), nil
	case int32:
		return typed("g:Int32", x), nil
	case int16:
		return typed("g:Int32", int32(x)), nil
	case int8:
		return typed("g:Int32", int32(x)), nil
	case uint8:
		return typed("g:Int32", int32(x)), nil
	case uint16:
		return typed("g:Int32", int32(x)), nil
	case uint32:
		return typed("g:Int64", int64(x)), nil
	case uint:
		return writeUint(uint64(x)), nil
	case uint64:
		return writeUint(x), nil
	case float64:
		return typed("g:Double", floatValue(x)), nil
	case float32:
		return typed("g:Float", floatValue(float64(x))), nil
	case *big.Int:
		return typed("gx:BigInteger", json.Number(x.String())), nil
	case uuid.UUID:
		return typed("g:UUID", x.String()), nil
	case time.Time:
		return typed("g:Date", x.UnixMilli()), nil
	case Typed:
		inner, err := g.write(x.Value)
		if err != nil {
			return nil, err
		}

		return typed(x.Type, inner), nil
	case Traverser:
		return g.writeTraverser(x)
	case Vertex:
		return g.writeVertex(x)
	case Edge:
		return g.writeEdge(x)
	case VertexProperty:
		return g.writeVertexProperty(x)
	case Property:
		return g.writeProperty(x)
	case Path:
		return g.writePath(x)
	case *Map:
		return g.writeMap(x.Keys, x.Values)
	case map[string]any:
		keys := slices.Sorted(maps.Keys(x))
		values := make([]any, len(keys))
		anyKeys := make([]any, len(keys))

		for i, k := range keys {
			anyKeys[i] = k
			values[i] = x[k]
		}

		return g.writeMap(anyKeys, values)
	case []any:
		return g.writeList(x)
	default:
		return g.writeReflect(v)
	}
}

func (g *GraphSON) writeReflect(v any) (any, error) {
	rv := reflect.ValueOf(v)

	switch rv.Kind() { //nolint:exhaustive
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}

		return g.writeList(items)
	case reflect.Map:
		keys := rv.MapKeys()
		slices.SortFunc(keys, func(a, b reflect.Value) int {
			return strings.Compare(fmt.Sprint(a.Interface()), fmt.Sprint(b.Interface()))
		})

		anyKeys := make([]any, len(keys))
		values := make([]any, len(keys))

		for i, k := range keys {
			anyKeys[i] = k.Interface()
			values[i] = rv.MapIndex(k).Interface()
		}

		return g.writeMap(anyKeys, values)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
	}
}

func (g *GraphSON) writeList(items []any) (any, error) {
	out := make([]any, len(items))

	for i, item := range items {
		w, err := g.write(item)
		if err != nil {
			return nil, err
		}

		out[i] = w
	}

	if g.version == 2 {
		return out, nil
	}

	return typed("g:List", out), nil
}

func (g *GraphSON) writeMap(keys, values []any) (any, error) {
	if g.version == 2 {
		obj := &object{}

		for i, k := range keys {
			w, err := g.write(values[i])
			if err != nil {
				return nil, err
			}

			obj.add(KeyString(k), w)
		}

		return obj, nil
	}

	flat := make([]any, 0, 2*len(keys))

	for i, k := range keys {
		wk, err := g.write(k)
		if err != nil {
			return nil, err
		}

		wv, err := g.write(values[i])
		if err != nil {
			return nil, err
		}

		flat = append(flat, wk, wv)
	}

	return typed("g:Map", flat), nil
}

func (g *GraphSON) writeTraverser(t Traverser) (any, error) {
	v, err := g.write(t.Value)
	if err != nil {
		return nil, err
	}

	obj := &object{}
	obj.add("bulk", typed("g:Int64", t.Bulk))
	obj.add("value", v)

	return typed("g:Traverser", obj), nil
}

func (g *GraphSON) writeVertex(v Vertex) (any, error) {
	id, err := g.write(v.ID)
	if err != nil {
		return nil, err
	}

	obj := &object{}
	obj.add("id", id)
	obj.add("label", v.Label)

	if len(v.Properties) > 0 {
		props := &object{}

		for _, k := range slices.Sorted(maps.Keys(v.Properties)) {
			list := make([]any, 0, len(v.Properties[k]))

			for _, vp := range v.Properties[k] {
				w, err := g.writeVertexProperty(vp)
				if err != nil {
					return nil, err
				}

				list = append(list, w)
			}

			props.add(k, list)
		}

		obj.add("properties", props)
	}

	return typed("g:Vertex", obj), nil
}

func (g *GraphSON) writeVertexProperty(vp VertexProperty) (any, error) {
	id, err := g.write(vp.ID)
	if err != nil {
		return nil, err
	}

	val, err := g.write(vp.Value)
	if err != nil {
		return nil, err
	}

	obj := &object{}
	obj.add("id", id)
	obj.add("value", val)
	obj.add("label", vp.Label)

	return typed("g:VertexProperty", obj), nil
}

func (g *GraphSON) writeProperty(p Property) (any, error) {
	val, err := g.write(p.Value)
	if err != nil {
		return nil, err
	}

	obj := &object{}
	obj.add("key", p.Key)
	obj.add("value", val)

	return typed("g:Property", obj), nil
}

func (g *GraphSON) writeEdge(e Edge) (any, error) {
	obj := &object{}

	for _, kv := range []struct {
		key string
		val any
	}{{"id", e.ID}, {"label", e.Label}, {"inVLabel", e.InVLabel}, {"outVLabel", e.OutVLabel}, {"inV", e.InV}, {"outV", e.OutV}} {
		w, err := g.write(kv.val)
		if err != nil {
			return nil, err
		}

		obj.add(kv.key, w)
	}

	if len(e.Properties) > 0 {
		props := &object{}

		for _, k := range slices.Sorted(maps.Keys(e.Properties)) {
			w, err := g.writeProperty(e.Properties[k])
			if err != nil {
				return nil, err
			}

			props.add(k, w)
		}

		obj.add("properties", props)
	}

	return typed("g:Edge", obj), nil
}

func (g *GraphSON) writePath(p Path) (any, error) {
	labels := make([]any, len(p.Labels))

	for i, set := range p.Labels {
		items := make([]any, len(set))
		for j, l := range set {
			items[j] = l
		}

		if g.version == 2 {
			labels[i] = items
		} else {
			labels[i] = typed("g:Set", items)
		}
	}

	objects, err := g.writeList(p.Objects)
	if err != nil {
		return nil, err
	}

	obj := &object{}
	if g.version == 2 {
		obj.add("labels", labels)
	} else {
		obj.add("labels", typed("g:List", labels))
	}

	obj.add("objects", objects)

	return typed("g:Path", obj), nil
}

func floatValue(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	default:
		return f
	}
}

// -----------------------------------------------------------------------------
// Reading
// -----------------------------------------------------------------------------

func (g *GraphSON) read(v any) (any, error) {
	switch x := v.(type) {
	case *object:
		if t, ok := x.get("@type"); ok {
			if name, ok := t.(string); ok {
				raw, _ := x.get("@value")

				return g.readTyped(name, raw)
			}
		}

		m := &Map{}

		for i, k := range x.keys {
			val, err := g.read(x.values[i])
			if err != nil {
				return nil, err
			}

			m.Keys = append(m.Keys, k)
			m.Values = append(m.Values, val)
		}

		return m, nil
	case []any:
		return g.readList(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}

		return x.Float64()
	default:
		return x, nil
	}
}

//nolint:gocyclo,cyclop // one case per GraphSON type
func (g *GraphSON) readTyped(t string, raw any) (any, error) {
	switch t {
	case "g:Int32":
		n, err := g.readInt(raw)

		return int32(n), err //nolint:gosec
	case "g:Int64":
		return g.readInt(raw)
	case "gx:Int16":
		n, err := g.readInt(raw)

		return int16(n), err //nolint:gosec
	case "gx:Byte":
		n, err := g.readInt(raw)

		return int8(n), err //nolint:gosec
	case "g:Float":
		f, err := readFloat(raw)

		return float32(f), err
	case "g:Double", "gx:BigDecimal":
		return readFloat(raw)
	case "gx:BigInteger":
		return readBigInt(raw)
	case "g:UUID":
		return g.readUUID(raw)
	case "g:Date", "g:Timestamp":
		ms, err := g.readInt(raw)

		return time.UnixMilli(ms).UTC(), err
	case "g:List", "g:Set":
		arr, err := asArray(raw)
		if err != nil {
			return nil, err
		}

		return g.readList(arr)
	case "g:Map":
		return g.readFlatMap(raw)
	case "g:Vertex":
		return g.readVertex(raw)
	case "g:Edge":
		return g.readEdge(raw)
	case "g:VertexProperty":
		return g.readVertexProperty(raw)
	case "g:Property":
		return g.readProperty(raw)
	case "g:Path":
		return g.readPath(raw)
	case "g:Traverser":
		return g.readTraverser(raw)
	case "g:T", "g:Direction", "g:Cardinality", "g:Column", "g:Order", "g:Pop", "g:Scope", "g:Class":
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not a string", ErrMalformedMessage, t)
		}

		return s, nil
	default:
		val, err := g.read(raw)
		if err != nil {
			return nil, err
		}

		return Typed{Type: t, Value: val}, nil
	}
}

func (g *GraphSON) readList(arr []any) ([]any, error) {
	out := make([]any, len(arr))

	for i, item := range arr {
		v, err := g.read(item)
		if err != nil {
			return nil, err
		}

		out[i] = v
	}

	return out, nil
}

func (g *GraphSON) readFlatMap(raw any) (*Map, error) {
	arr, err := asArray(raw)
	if err != nil {
		return nil, err
	}

	if len(arr)%2 != 0 {
		return nil, fmt.Errorf("%w: g:Map has odd number of entries", ErrMalformedMessage)
	}

	m := &Map{}

	for i := 0; i < len(arr); i += 2 {
		k, err := g.read(arr[i])
		if err != nil {
			return nil, err
		}

		v, err := g.read(arr[i+1])
		if err != nil {
			return nil, err
		}

		m.Keys = append(m.Keys, k)
		m.Values = append(m.Values, v)
	}

	return m, nil
}

func (g *GraphSON) readStringMap(raw any) (map[string]any, error) {
	v, err := g.read(raw)
	if err != nil {
		return nil, err
	}

	switch m := v.(type) {
	case nil:
		return nil, nil
	case *Map:
		return m.StringMap(), nil
	default:
		return nil, fmt.Errorf("%w: expected map, got %T", ErrMalformedMessage, v)
	}
}

func (g *GraphSON) readVertex(raw any) (Vertex, error) {
	obj, err := asObject(raw)
	if err != nil {
		return Vertex{}, err
	}

	var v Vertex

	if v.ID, err = g.field(obj, "id"); err != nil {
		return Vertex{}, err
	}

	label, _ := obj.get("label")
	v.Label, _ = label.(string)

	rawProps, ok := obj.get("properties")
	if !ok {
		return v, nil
	}

	props, err := asObject(rawProps)
	if err != nil {
		return Vertex{}, err
	}

	v.Properties = make(map[string][]VertexProperty, len(props.keys))

	for i, k := range props.keys {
		list, err := g.read(props.values[i])
		if err != nil {
			return Vertex{}, err
		}

		items, ok := list.([]any)
		if !ok {
			items = []any{list}
		}

		for _, item := range items {
			vp, ok := item.(VertexProperty)
			if !ok {
				vp = VertexProperty{Label: k, Value: item}
			}

			v.Properties[k] = append(v.Properties[k], vp)
		}
	}

	return v, nil
}

func (g *GraphSON) readVertexProperty(raw any) (VertexProperty, error) {
	obj, err := asObject(raw)
	if err != nil {
		return VertexProperty{}, err
	}

	var vp VertexProperty

	if vp.ID, err = g.field(obj, "id"); err != nil {
		return VertexProperty{}, err
	}

	if vp.Value, err = g.field(obj, "value"); err != nil {
		return VertexProperty{}, err
	}

	label, _ := obj.get("label")
	vp.Label, _ = label.(string)

	return vp, nil
}

func (g *GraphSON) readProperty(raw any) (Property, error) {
	obj, err := asObject(raw)
	if err != nil {
		return Property{}, err
	}

	var p Property

	key, _ := obj.get("key")
	p.Key, _ = key.(string)

	if p.Value, err = g.field(obj, "value"); err != nil {
		return Property{}, err
	}

	return p, nil
}

func (g *GraphSON) readEdge(raw any) (Edge, error) {
	obj, err := asObject(raw)
	if err != nil {
		return Edge{}, err
	}

	var e Edge

	if e.ID, err = g.field(obj, "id"); err != nil {
		return Edge{}, err
	}

	if e.InV, err = g.field(obj, "inV"); err != nil {
		return Edge{}, err
	}

	if e.OutV, err = g.field(obj, "outV"); err != nil {
		return Edge{}, err
	}

	label, _ := obj.get("label")
	e.Label, _ = label.(string)
	inLabel, _ := obj.get("inVLabel")
	e.InVLabel, _ = inLabel.(string)
	outLabel, _ := obj.get("outVLabel")
	e.OutVLabel, _ = outLabel.(string)

	rawProps, ok := obj.get("properties")
	if !ok {
		return e, nil
	}

	props, err := asObject(rawProps)
	if err != nil {
		return Edge{}, err
	}

	e.Properties = make(map[string]Property, len(props.keys))

	for i, k := range props.keys {
		v, err := g.read(props.values[i])
		if err != nil {
			return Edge{}, err
		}

		p, ok := v.(Property)
		if !ok {
			p = Property{Key: k, Value: v}
		}

		e.Properties[k] = p
	}

	return e, nil
}

func (g *GraphSON) readPath(raw any) (Path, error) {
	obj, err := asObject(raw)
	if err != nil {
		return Path{}, err
	}

	var p Path

	labels, err := g.field(obj, "labels")
	if err != nil {
		return Path{}, err
	}

	sets, _ := labels.([]any)
	for _, set := range sets {
		items, _ := set.([]any)
		names := make([]string, 0, len(items))

		for _, item := range items {
			names = append(names, fmt.Sprint(item))
		}

		p.Labels = append(p.Labels, names)
	}

	objects, err := g.field(obj, "objects")
	if err != nil {
		return Path{}, err
	}

	p.Objects, _ = objects.([]any)

	return p, nil
}

func (g *GraphSON) readTraverser(raw any) (Traverser, error) {
	obj, err := asObject(raw)
	if err != nil {
		return Traverser{}, err
	}

	var t Traverser

	bulk, _ := obj.get("bulk")
	if t.Bulk, err = g.readInt(bulk); err != nil {
		return Traverser{}, err
	}

	if t.Bulk > MaxBulk {
		return Traverser{}, fmt.Errorf("%w: traverser bulk %d exceeds %d", ErrMalformedMessage, t.Bulk, MaxBulk)
	}

	if t.Value, err = g.field(obj, "value"); err != nil {
		return Traverser{}, err
	}

	return t, nil
}

func (g *GraphSON) field(obj *object, name string) (any, error) {
	raw, ok := obj.get(name)
	if !ok {
		return nil, nil
	}

	return g.read(raw)
}

func (g *GraphSON) readInt(raw any) (int64, error) {
	v, err := g.read(raw)
	if err != nil {
		return 0, err
	}

	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("%w: expected integer, got %T", ErrMalformedMessage, v)
	}
}

func (g *GraphSON) readUUID(raw any) (uuid.UUID, error) {
	switch x := raw.(type) {
	case nil:
		return uuid.Nil, nil
	case string:
		id, err := uuid.Parse(x)
		if err != nil {
			return uuid.Nil, fmt.Errorf("%w: request id: %w", ErrMalformedMessage, err)
		}

		return id, nil
	case *object:
		inner, _ := x.get("@value")

		return g.readUUID(inner)
	default:
		return uuid.Nil, fmt.Errorf("%w: request id has type %T", ErrMalformedMessage, raw)
	}
}

func readFloat(raw any) (float64, error) {
	switch x := raw.(type) {
	case json.Number:
		return x.Float64()
	case string:
		switch x {
		case "NaN":
			return math.NaN(), nil
		case "Infinity":
			return math.Inf(1), nil
		case "-Infinity":
			return math.Inf(-1), nil
		}

		return json.Number(x).Float64()
	default:
		return 0, fmt.Errorf("%w: expected number, got %T", ErrMalformedMessage, raw)
	}
}

func readBigInt(raw any) (*big.Int, error) {
	var s string

	switch x := raw.(type) {
	case json.Number:
		s = x.String()
	case string:
		s = x
	default:
		return nil, fmt.Errorf("%w: expected big integer, got %T", ErrMalformedMessage, raw)
	}

	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%w: invalid big integer %q", ErrMalformedMessage, s)
	}

	return n, nil
}

func asObject(raw any) (*object, error) {
	obj, ok := raw.(*object)
	if !ok {
		return nil, fmt.Errorf("%w: expected object, got %T", ErrMalformedMessage, raw)
	}

	return obj, nil
}

func asArray(raw any) ([]any, error) {
	arr, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected array, got %T", ErrMalformedMessage, raw)
	}

	return arr, nil
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}

	return m
}
