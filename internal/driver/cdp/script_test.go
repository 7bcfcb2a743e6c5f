// internal/driver/cdp/script_test.go
package cdp

import (
	"strings"
	"testing"

	"github.com/chromedp/cdproto/runtime"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/pagekit/internal/mocks"
)

func TestCallArguments(t *testing.T) {
	el := &element{id: "obj-7", desc: `css="#x"`}

	args, err := callArguments([]any{"text", 3, true, nil, el, map[string]int{"a": 1}})
	require.NoError(t, err)
	require.Len(t, args, 6)

	values := make([]string, 0, len(args))
	for _, a := range args {
		values = append(values, string(a.Value))
	}
	want := []string{`"text"`, `3`, `true`, `null`, ``, `{"a":1}`}
	if diff := cmp.Diff(want, values); diff != "" {
		t.Errorf("encoded values mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, runtime.RemoteObjectID("obj-7"), args[4].ObjectID)
	assert.Empty(t, args[0].ObjectID)
}

func TestCallArgumentsRejectsForeignElements(t *testing.T) {
	_, err := callArguments([]any{mocks.NewMockElement("#foreign")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "argument 0")
	assert.Contains(t, err.Error(), "#foreign")
}

func TestCallArgumentsUnencodable(t *testing.T) {
	_, err := callArguments([]any{"ok", make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "argument 1")
}

func TestDecodeResult(t *testing.T) {
	t.Run("object", func(t *testing.T) {
		var b box
		obj := &runtime.RemoteObject{Type: runtime.TypeObject, Value: []byte(`{"x":10.5,"y":20,"width":4,"height":2}`)}
		require.NoError(t, decodeResult(obj, &b))
		assert.Equal(t, box{X: 10.5, Y: 20, Width: 4, Height: 2}, b)
	})

	t.Run("undefined leaves scalars untouched", func(t *testing.T) {
		n := 42
		require.NoError(t, decodeResult(&runtime.RemoteObject{Type: runtime.TypeUndefined}, &n))
		assert.Equal(t, 42, n)
	})

	t.Run("null clears pointers", func(t *testing.T) {
		s := "old"
		p := &s
		require.NoError(t, decodeResult(&runtime.RemoteObject{Type: runtime.TypeObject, Subtype: runtime.SubtypeNull, Value: []byte("null")}, &p))
		assert.Nil(t, p)
	})

	t.Run("nil res ignores result", func(t *testing.T) {
		assert.NoError(t, decodeResult(&runtime.RemoteObject{Value: []byte(`"x"`)}, nil))
	})

	t.Run("type mismatch", func(t *testing.T) {
		var n int
		err := decodeResult(&runtime.RemoteObject{Type: runtime.TypeString, Value: []byte(`"abc"`)}, &n)
		assert.ErrorContains(t, err, "decoding script result of type string")
	})
}

func TestIsNullish(t *testing.T) {
	assert.True(t, isNullish(nil))
	assert.True(t, isNullish(&runtime.RemoteObject{Type: runtime.TypeUndefined}))
	assert.True(t, isNullish(&runtime.RemoteObject{Type: runtime.TypeObject, Subtype: runtime.SubtypeNull}))
	assert.False(t, isNullish(&runtime.RemoteObject{Type: runtime.TypeObject, Subtype: runtime.SubtypeNode, ObjectID: "1"}))
}

func TestFunctionBuilders(t *testing.T) {
	guarded := guardedFunction(textFunction)
	assert.True(t, strings.HasPrefix(guarded, "function(...args)"))
	assert.Contains(t, guarded, "this.isConnected")
	assert.Contains(t, guarded, staleMarker)
	assert.Contains(t, guarded, "("+textFunction+").apply(this, args)")

	body := "return arguments[0] + 1;"
	assert.Equal(t, "function() {\n"+body+"\n}", executeFunction(body))

	for _, strategy := range []string{"css", "xpath", "id", "name", "link", "partial_link", "tag"} {
		assert.Contains(t, findFunction, `case "`+strategy+`"`)
	}
}

func TestScriptPreview(t *testing.T) {
	assert.Equal(t, "return document.title;", scriptPreview("  return\n\tdocument.title;  "))

	long := strings.Repeat("a", 200)
	got := scriptPreview(long)
	assert.Len(t, got, 80)
	assert.True(t, strings.HasSuffix(got, "..."))
}
