package textcache_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/slabtable/pkg/boundcache"
	"github.com/calvinalkan/slabtable/pkg/textcache"
)

type fakeRenderer struct {
	next      textcache.Texture
	rendered  []string
	destroyed []textcache.Texture
	err       error
}

func (f *fakeRenderer) Render(text string, _ textcache.FontID) (textcache.Texture, error) {
	if f.err != nil {
		return 0, f.err
	}

	f.next++
	f.rendered = append(f.rendered, text)

	return f.next, nil
}

func (f *fakeRenderer) Destroy(tex textcache.Texture) {
	f.destroyed = append(f.destroyed, tex)
}

func Test_New_Returns_Error_When_Arguments_Invalid(t *testing.T) {
	t.Parallel()

	_, err := textcache.New(4, nil)
	require.ErrorIs(t, err, textcache.ErrNoRenderer)

	_, err = textcache.New(0, &fakeRenderer{})
	require.ErrorIs(t, err, boundcache.ErrInvalidOptions)
}

func Test_Texture_Renders_Once_When_Same_Text_And_Font_Requested(t *testing.T) {
	t.Parallel()

	r := &fakeRenderer{}
	c, err := textcache.New(4, r)
	require.NoError(t, err)

	a, err := c.Texture("score", 12)
	require.NoError(t, err)

	b, err := c.Texture("score", 12)
	require.NoError(t, err)

	require.Equal(t, a, b)
	require.Equal(t, []string{"score"}, r.rendered)

	other, err := c.Texture("score", 14)
	require.NoError(t, err)
	require.NotEqual(t, a, other)

	st := c.Stats()
	require.Equal(t, uint64(1), st.Hits)
	require.Equal(t, uint64(2), st.Misses)
}

func Test_Texture_Destroys_Oldest_When_Cache_Full(t *testing.T) {
	t.Parallel()

	r := &fakeRenderer{}
	c, err := textcache.New(2, r)
	require.NoError(t, err)

	first, err := c.Texture("a", 1)
	require.NoError(t, err)

	_, _ = c.Texture("b", 1)
	_, _ = c.Texture("c", 1)

	require.Equal(t, []textcache.Texture{first}, r.destroyed)
	require.False(t, c.Cached("a", 1))
	require.True(t, c.Cached("c", 1))
	require.Equal(t, 2, c.Len())
}

func Test_Texture_Shares_Entry_When_Texts_Differ_Only_Past_Limit(t *testing.T) {
	t.Parallel()

	r := &fakeRenderer{}
	c, err := textcache.New(4, r)
	require.NoError(t, err)

	prefix := strings.Repeat("x", textcache.MaxStringSize)

	a, err := c.Texture(prefix+"tail-one", 1)
	require.NoError(t, err)

	b, err := c.Texture(prefix+"tail-two", 1)
	require.NoError(t, err)

	require.Equal(t, a, b)
	require.Equal(t, []string{prefix}, r.rendered)
}

func Test_Truncate_Keeps_Whole_Runes_When_Cut_Falls_Inside_One(t *testing.T) {
	t.Parallel()

	s := strings.Repeat("a", textcache.MaxStringSize-1) + "é"

	if got, want := len(textcache.Truncate(s)), textcache.MaxStringSize-1; got != want {
		t.Errorf("len=%d, want=%d", got, want)
	}

	require.Equal(t, "short", textcache.Truncate("short"))
}

func Test_Truncate_Cuts_At_Limit_When_Text_Is_Not_UTF8(t *testing.T) {
	t.Parallel()

	s := strings.Repeat("\x80", 300)

	if got, want := len(textcache.Truncate(s)), textcache.MaxStringSize; got != want {
		t.Errorf("len=%d, want=%d", got, want)
	}
}

func Test_Texture_Keeps_Texts_Distinct_When_Long_Text_Is_Not_UTF8(t *testing.T) {
	t.Parallel()

	r := &fakeRenderer{}
	c, err := textcache.New(4, r)
	require.NoError(t, err)

	a, err := c.Texture(strings.Repeat("\x80", 300), 1)
	require.NoError(t, err)

	b, err := c.Texture(strings.Repeat("\xbf", 300), 1)
	require.NoError(t, err)

	empty, err := c.Texture("", 1)
	require.NoError(t, err)

	require.NotEqual(t, a, b)
	require.NotEqual(t, a, empty)
	require.NotEqual(t, b, empty)
	require.Len(t, r.rendered, 3)
}

func Test_Texture_Returns_Renderer_Error_When_Render_Fails(t *testing.T) {
	t.Parallel()

	boom := errors.New("no gpu")
	r := &fakeRenderer{err: boom}

	c, err := textcache.New(2, r)
	require.NoError(t, err)

	_, err = c.Texture("x", 1)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, c.Len())
}

func Test_Close_Destroys_Every_Texture_When_Called(t *testing.T) {
	t.Parallel()

	r := &fakeRenderer{}
	c, err := textcache.New(3, r)
	require.NoError(t, err)

	for _, s := range []string{"x", "y", "z"} {
		_, err := c.Texture(s, 0)
		require.NoError(t, err)
	}

	c.Close()

	require.Equal(t, []textcache.Texture{1, 2, 3}, r.destroyed)
	require.Equal(t, 0, c.Len())
}
