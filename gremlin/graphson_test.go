//nolint:testpackage
package gremlin

import (
	"encoding/json"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeValue(t *testing.T, g *GraphSON, raw string) any {
	t.Helper()

	parsed, err := parseJSON([]byte(raw))
	require.NoError(t, err)

	v, err := g.read(parsed)
	require.NoError(t, err)

	return v
}

func encodeValue(t *testing.T, g *GraphSON, v any) string {
	t.Helper()

	w, err := g.write(v)
	require.NoError(t, err)

	data, err := json.Marshal(w)
	require.NoError(t, err)

	return string(data)
}

func TestSerializerFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		wantMime string
		wantErr  bool
	}{
		{name: "empty defaults to v3", input: "", wantMime: MimeGraphSONV3},
		{name: "v3 name", input: "graphsonv3", wantMime: MimeGraphSONV3},
		{name: "v2 short", input: "v2", wantMime: MimeGraphSONV2},
		{name: "v2 mime", input: MimeGraphSONV2, wantMime: MimeGraphSONV2},
		{name: "case insensitive", input: " GraphSONv2 ", wantMime: MimeGraphSONV2},
		{name: "gryo unsupported", input: "gryo", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ser, err := SerializerFor(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownSerializer)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantMime, ser.MimeType())
		})
	}
}

func TestGraphSON_EncodeRequest(t *testing.T) {
	t.Parallel()

	id := uuid.MustParse("41d2e28a-20a4-4ab0-b379-d810dede3786")
	req := NewRequest(OpsEval).
		RequestID(id).
		Processor(ProcessorCypher).
		Arg(ArgsGremlin, "MATCH (n {name: $name}) RETURN n.age").
		Arg(ArgsBindings, map[string]any{"name": "marko", "limit": 2}).
		Build()

	t.Run("v3", func(t *testing.T) {
		t.Parallel()

		frame, err := NewGraphSONV3().EncodeRequest(req)
		require.NoError(t, err)

		mime, payload, err := SplitFrame(frame)
		require.NoError(t, err)
		assert.Equal(t, MimeGraphSONV3, mime)
		assert.Equal(t, byte(len(MimeGraphSONV3)), frame[0])

		want := `{"requestId":{"@type":"g:UUID","@value":"41d2e28a-20a4-4ab0-b379-d810dede3786"},` +
			`"op":"eval","processor":"cypher","args":{` +
			`"bindings":{"@type":"g:Map","@value":["limit",{"@type":"g:Int64","@value":2},"name","marko"]},` +
			`"gremlin":"MATCH (n {name: $name}) RETURN n.age"}}`
		assert.JSONEq(t, want, string(payload))
	})

	t.Run("v2", func(t *testing.T) {
		t.Parallel()

		frame, err := NewGraphSONV2().EncodeRequest(req)
		require.NoError(t, err)

		mime, payload, err := SplitFrame(frame)
		require.NoError(t, err)
		assert.Equal(t, MimeGraphSONV2, mime)

		want := `{"requestId":{"@type":"g:UUID","@value":"41d2e28a-20a4-4ab0-b379-d810dede3786"},` +
			`"op":"eval","processor":"cypher","args":{` +
			`"bindings":{"limit":{"@type":"g:Int64","@value":2},"name":"marko"},` +
			`"gremlin":"MATCH (n {name: $name}) RETURN n.age"}}`
		assert.JSONEq(t, want, string(payload))
	})
}

func TestGraphSON_DecodeRequest(t *testing.T) {
	t.Parallel()

	g := NewGraphSONV3()
	req := NewRequest(OpsEval).
		Processor(ProcessorCypher).
		Arg(ArgsGremlin, "RETURN $x").
		Arg(ArgsBindings, map[string]any{"x": int32(1)}).
		Build()

	frame, err := g.EncodeRequest(req)
	require.NoError(t, err)

	got, err := g.DecodeRequest(frame)
	require.NoError(t, err)

	assert.Equal(t, req.RequestID, got.RequestID)
	assert.Equal(t, OpsEval, got.Op)
	assert.Equal(t, ProcessorCypher, got.Processor)
	assert.Equal(t, "RETURN $x", got.Args[ArgsGremlin])

	if diff := cmp.Diff(NewMap("x", int32(1)), got.Args[ArgsBindings]); diff != "" {
		t.Errorf("bindings mismatch (-want +got):\n%s", diff)
	}
}

func TestGraphSON_DecodeResponse(t *testing.T) {
	t.Parallel()

	data := `{"requestId":"41d2e28a-20a4-4ab0-b379-d810dede3786",
		"status":{"message":"","code":200,"attributes":{"@type":"g:Map","@value":["host","/127.0.0.1:8182"]}},
		"result":{"data":{"@type":"g:List","@value":[
			{"@type":"g:Map","@value":["n.name","marko","age",{"@type":"g:Int32","@value":29},"weight",{"@type":"g:Double","@value":0.4}]}
		]},"meta":{"@type":"g:Map","@value":[]}}}`

	resp, err := NewGraphSONV3().DecodeResponse([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, uuid.MustParse("41d2e28a-20a4-4ab0-b379-d810dede3786"), resp.RequestID)
	assert.Equal(t, StatusSuccess, resp.Status.Code)
	assert.Equal(t, map[string]any{"host": "/127.0.0.1:8182"}, resp.Status.Attributes)
	assert.Empty(t, resp.Result.Meta)

	want := []any{&Map{
		Keys:   []any{"n.name", "age", "weight"},
		Values: []any{"marko", int32(29), 0.4},
	}}

	if diff := cmp.Diff(want, resp.Items()); diff != "" {
		t.Errorf("Items() mismatch (-want +got):\n%s", diff)
	}
}

func TestGraphSON_DecodeResponse_V2KeepsKeyOrder(t *testing.T) {
	t.Parallel()

	data := `{"requestId":{"@type":"g:UUID","@value":"41d2e28a-20a4-4ab0-b379-d810dede3786"},
		"status":{"message":"","code":206,"attributes":{}},
		"result":{"data":[{"z":1,"a":{"@type":"g:Int64","@value":2},"m":null}],"meta":{}}}`

	resp, err := NewGraphSONV2().DecodeResponse([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, StatusPartialContent, resp.Status.Code)

	want := []any{&Map{
		Keys:   []any{"z", "a", "m"},
		Values: []any{int64(1), int64(2), nil},
	}}

	if diff := cmp.Diff(want, resp.Items()); diff != "" {
		t.Errorf("Items() mismatch (-want +got):\n%s", diff)
	}
}

func TestGraphSON_DecodeResponse_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: `{`},
		{name: "not an object", data: `[]`},
		{name: "missing status", data: `{"requestId":"41d2e28a-20a4-4ab0-b379-d810dede3786"}`},
		{name: "bad request id", data: `{"requestId":"nope","status":{"code":200}}`},
		{name: "odd map", data: `{"requestId":"41d2e28a-20a4-4ab0-b379-d810dede3786","status":{"code":200},` +
			`"result":{"data":{"@type":"g:Map","@value":["k"]}}}`},
		{name: "huge bulk", data: `{"requestId":"41d2e28a-20a4-4ab0-b379-d810dede3786","status":{"code":200},` +
			`"result":{"data":{"@type":"g:List","@value":[{"@type":"g:Traverser","@value":` +
			`{"bulk":{"@type":"g:Int64","@value":9223372036854775807},"value":"x"}}]}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewGraphSONV3().DecodeResponse([]byte(tt.data))
			require.ErrorIs(t, err, ErrMalformedMessage)
		})
	}
}

func TestGraphSON_ReadTyped(t *testing.T) {
	t.Parallel()

	g := NewGraphSONV3()

	tests := []struct {
		name string
		raw  string
		want any
	}{
		{name: "int32", raw: `{"@type":"g:Int32","@value":7}`, want: int32(7)},
		{name: "int64", raw: `{"@type":"g:Int64","@value":7}`, want: int64(7)},
		{name: "float", raw: `{"@type":"g:Float","@value":1.5}`, want: float32(1.5)},
		{name: "double", raw: `{"@type":"g:Double","@value":0.4}`, want: 0.4},
		{name: "big decimal", raw: `{"@type":"gx:BigDecimal","@value":1.25}`, want: 1.25},
		{
			name: "uuid",
			raw:  `{"@type":"g:UUID","@value":"41d2e28a-20a4-4ab0-b379-d810dede3786"}`,
			want: uuid.MustParse("41d2e28a-20a4-4ab0-b379-d810dede3786"),
		},
		{name: "date", raw: `{"@type":"g:Date","@value":1481750076295}`, want: time.UnixMilli(1481750076295).UTC()},
		{name: "token", raw: `{"@type":"g:T","@value":"label"}`, want: "label"},
		{name: "direction", raw: `{"@type":"g:Direction","@value":"OUT"}`, want: "OUT"},
		{
			name: "set",
			raw:  `{"@type":"g:Set","@value":["a",{"@type":"g:Int32","@value":1}]}`,
			want: []any{"a", int32(1)},
		},
		{name: "unknown type", raw: `{"@type":"janus:RelationIdentifier","@value":"abc"}`, want: Typed{Type: "janus:RelationIdentifier", Value: "abc"}},
		{
			name: "traverser",
			raw:  `{"@type":"g:Traverser","@value":{"bulk":{"@type":"g:Int64","@value":3},"value":"x"}}`,
			want: Traverser{Bulk: 3, Value: "x"},
		},
		{
			name: "vertex",
			raw: `{"@type":"g:Vertex","@value":{"id":{"@type":"g:Int64","@value":1},"label":"person",` +
				`"properties":{"name":[{"@type":"g:VertexProperty","@value":` +
				`{"id":{"@type":"g:Int64","@value":0},"value":"marko","label":"name"}}]}}}`,
			want: Vertex{
				ID:    int64(1),
				Label: "person",
				Properties: map[string][]VertexProperty{
					"name": {{ID: int64(0), Label: "name", Value: "marko"}},
				},
			},
		},
		{
			name: "edge",
			raw: `{"@type":"g:Edge","@value":{"id":{"@type":"g:Int64","@value":7},"label":"knows",` +
				`"inVLabel":"person","outVLabel":"person","inV":{"@type":"g:Int64","@value":2},` +
				`"outV":{"@type":"g:Int64","@value":1},"properties":{"weight":{"@type":"g:Property",` +
				`"@value":{"key":"weight","value":{"@type":"g:Double","@value":0.5}}}}}}`,
			want: Edge{
				ID:        int64(7),
				Label:     "knows",
				InV:       int64(2),
				InVLabel:  "person",
				OutV:      int64(1),
				OutVLabel: "person",
				Properties: map[string]Property{
					"weight": {Key: "weight", Value: 0.5},
				},
			},
		},
		{
			name: "path",
			raw: `{"@type":"g:Path","@value":{"labels":{"@type":"g:List","@value":[` +
				`{"@type":"g:Set","@value":["a"]},{"@type":"g:Set","@value":[]}]},` +
				`"objects":{"@type":"g:List","@value":["marko","lop"]}}}`,
			want: Path{Labels: [][]string{{"a"}, {}}, Objects: []any{"marko", "lop"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := decodeValue(t, g, tt.raw)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("read mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGraphSON_ReadSpecialValues(t *testing.T) {
	t.Parallel()

	g := NewGraphSONV3()

	nan := decodeValue(t, g, `{"@type":"g:Double","@value":"NaN"}`)
	assert.True(t, math.IsNaN(nan.(float64)))

	inf := decodeValue(t, g, `{"@type":"g:Double","@value":"-Infinity"}`)
	assert.True(t, math.IsInf(inf.(float64), -1))

	big1, ok := decodeValue(t, g, `{"@type":"gx:BigInteger","@value":123456789012345678901234567890}`).(*big.Int)
	require.True(t, ok)

	want, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	assert.Equal(t, 0, want.Cmp(big1))
}

func TestGraphSON_Write(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		value  any
		wantV3 string
		wantV2 string
	}{
		{name: "nil", value: nil, wantV3: `null`, wantV2: `null`},
		{name: "string", value: "x", wantV3: `"x"`, wantV2: `"x"`},
		{name: "int", value: 1, wantV3: `{"@type":"g:Int64","@value":1}`, wantV2: `{"@type":"g:Int64","@value":1}`},
		{name: "int32", value: int32(1), wantV3: `{"@type":"g:Int32","@value":1}`, wantV2: `{"@type":"g:Int32","@value":1}`},
		{name: "uint64", value: uint64(7), wantV3: `{"@type":"g:Int64","@value":7}`, wantV2: `{"@type":"g:Int64","@value":7}`},
		{
			name:   "uint64 above int64",
			value:  uint64(math.MaxUint64),
			wantV3: `{"@type":"gx:BigInteger","@value":18446744073709551615}`,
			wantV2: `{"@type":"gx:BigInteger","@value":18446744073709551615}`,
		},
		{
			name:   "uint64 just above int64",
			value:  uint64(math.MaxInt64) + 1,
			wantV3: `{"@type":"gx:BigInteger","@value":9223372036854775808}`,
			wantV2: `{"@type":"gx:BigInteger","@value":9223372036854775808}`,
		},
		{name: "uint", value: uint(7), wantV3: `{"@type":"g:Int64","@value":7}`, wantV2: `{"@type":"g:Int64","@value":7}`},
		{name: "double", value: 0.5, wantV3: `{"@type":"g:Double","@value":0.5}`, wantV2: `{"@type":"g:Double","@value":0.5}`},
		{name: "float", value: float32(1.5), wantV3: `{"@type":"g:Float","@value":1.5}`, wantV2: `{"@type":"g:Float","@value":1.5}`},
		{name: "nan", value: math.NaN(), wantV3: `{"@type":"g:Double","@value":"NaN"}`, wantV2: `{"@type":"g:Double","@value":"NaN"}`},
		{name: "date", value: time.UnixMilli(1000), wantV3: `{"@type":"g:Date","@value":1000}`, wantV2: `{"@type":"g:Date","@value":1000}`},
		{
			name:   "map",
			value:  map[string]any{"b": 1, "a": "x"},
			wantV3: `{"@type":"g:Map","@value":["a","x","b",{"@type":"g:Int64","@value":1}]}`,
			wantV2: `{"a":"x","b":{"@type":"g:Int64","@value":1}}`,
		},
		{
			name:   "ordered map",
			value:  NewMap("z", true, "a", false),
			wantV3: `{"@type":"g:Map","@value":["z",true,"a",false]}`,
			wantV2: `{"z":true,"a":false}`,
		},
		{
			name:   "typed slice",
			value:  []string{"a", "b"},
			wantV3: `{"@type":"g:List","@value":["a","b"]}`,
			wantV2: `["a","b"]`,
		},
		{
			name:   "property",
			value:  Property{Key: "weight", Value: 0.5},
			wantV3: `{"@type":"g:Property","@value":{"key":"weight","value":{"@type":"g:Double","@value":0.5}}}`,
			wantV2: `{"@type":"g:Property","@value":{"key":"weight","value":{"@type":"g:Double","@value":0.5}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.JSONEq(t, tt.wantV3, encodeValue(t, NewGraphSONV3(), tt.value))
			assert.JSONEq(t, tt.wantV2, encodeValue(t, NewGraphSONV2(), tt.value))
		})
	}
}

func TestGraphSON_WriteOrderedMapKeepsOrder(t *testing.T) {
	t.Parallel()

	got := encodeValue(t, NewGraphSONV2(), NewMap("z", 1, "a", 2))
	assert.Equal(t, `{"z":{"@type":"g:Int64","@value":1},"a":{"@type":"g:Int64","@value":2}}`, got)
}

func TestGraphSON_WriteUnsupported(t *testing.T) {
	t.Parallel()

	_, err := NewGraphSONV3().write(struct{}{})
	require.ErrorIs(t, err, ErrUnsupportedType)

	_, err = NewGraphSONV3().write(make(chan int))
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestGraphSON_ResponseRoundTrip(t *testing.T) {
	t.Parallel()

	for _, g := range []*GraphSON{NewGraphSONV2(), NewGraphSONV3()} {
		t.Run(g.MimeType(), func(t *testing.T) {
			t.Parallel()

			resp := &ResponseMessage{
				RequestID: uuid.New(),
				Status:    Status{Code: StatusPartialContent},
				Result: Result{Data: []any{
					NewMap("n.name", "marko", "n.age", int64(29)),
					NewMap("n.name", "lop", "n.age", nil),
				}},
			}

			data, err := g.EncodeResponse(resp)
			require.NoError(t, err)

			got, err := g.DecodeResponse(data)
			require.NoError(t, err)

			assert.Equal(t, resp.RequestID, got.RequestID)
			assert.Equal(t, StatusPartialContent, got.Status.Code)

			if diff := cmp.Diff(resp.Result.Data, got.Result.Data); diff != "" {
				t.Errorf("data mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSplitFrame(t *testing.T) {
	t.Parallel()

	_, _, err := SplitFrame(nil)
	require.ErrorIs(t, err, ErrMalformedMessage)

	_, _, err = SplitFrame([]byte{10, 'a'})
	require.ErrorIs(t, err, ErrMalformedMessage)

	mime, payload, err := SplitFrame([]byte{1, 'x', '{', '}'})
	require.NoError(t, err)
	assert.Equal(t, "x", mime)
	assert.Equal(t, []byte("{}"), payload)
}
