package frontmatter

import (
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip_SimpleRecord(t *testing.T) {
	rec := NewRecord(
		Field{"title", Text("Hello, World")},
		Field{"year", Number(2024)},
		Field{"ratio", Number(-0.25)},
		Field{"draft", Boolean(false)},
		Field{"featured", Boolean(true)},
		Field{"tags", List("go", "web", "a b")},
		Field{"version", Text("v1.2")},
	)

	got, body := Decode(EncodeDocument(rec, ""))
	assert.Equal(t, "", body)
	assert.True(t, rec.Equal(got), "got %v", got.Fields())
	assert.Equal(t, rec.Keys(), got.Keys())
}

func TestEncode_Format(t *testing.T) {
	rec := NewRecord(
		Field{"title", Text(`Say "hi"`)},
		Field{"n", Number(3)},
		Field{"ok", Boolean(true)},
		Field{"tags", List("a", "b")},
		Field{"empty", List()},
		Field{"summary", Text("one\ntwo")},
	)
	want := "---\n" +
		"title: \"Say \\\"hi\\\"\"\n" +
		"n: 3\n" +
		"ok: true\n" +
		"tags:\n- \"a\"\n- \"b\"\n" +
		"empty: []\n" +
		"summary: |\n  one\n  two\n" +
		"---"
	assert.Equal(t, want, Encode(rec))
	// Deterministic output.
	assert.Equal(t, Encode(rec), Encode(rec.Clone()))
}

func TestEncode_OmitsAbsentAndEmptyText(t *testing.T) {
	rec := NewRecord(
		Field{"title", Text("x")},
		Field{"gone", Absent()},
		Field{"blank", Text("")},
	)
	out := Encode(rec)
	assert.NotContains(t, out, "gone")
	assert.NotContains(t, out, "blank")
	assert.Equal(t, "---\ntitle: \"x\"\n---", out)
}

func TestRoundTrip_List(t *testing.T) {
	rec := NewRecord(Field{"tags", List("a", "b", "c")})
	got, _ := Decode(EncodeDocument(rec, "body"))
	v, ok := got.Get("tags")
	require.True(t, ok)
	items, ok := v.AsList()
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, items)
}

func TestRoundTrip_EmptyList(t *testing.T) {
	rec := NewRecord(Field{"tags", List()})
	got, _ := Decode(EncodeDocument(rec, ""))
	assert.True(t, rec.Equal(got))
}

func TestRoundTrip_Multiline(t *testing.T) {
	for _, s := range []string{
		"line one\nline two",
		"trailing newline\n",
		"with\n\nblank line",
		"  indented\n    deeper",
		"---\nnot a delimiter",
	} {
		rec := NewRecord(Field{"summary", Text(s)}, Field{"after", Text("x")})
		got, body := Decode(EncodeDocument(rec, "B"))
		assert.Equal(t, "B", body)
		v, _ := got.Get("summary")
		text, ok := v.AsText()
		require.True(t, ok, "summary kind = %s", v.Kind())
		assert.Equal(t, s, text)
		after, _ := got.Get("after")
		assert.True(t, after.Equal(Text("x")))
	}
}

func TestDecode_NoHeaderPassthrough(t *testing.T) {
	for _, in := range []string{
		"",
		"plain text\nwith lines\n",
		" ---\ntitle: x\n---\n",
		"---",
		"# ---\n",
	} {
		rec, body := Decode(in)
		assert.Equal(t, 0, rec.Len())
		assert.Equal(t, in, body)
	}
}

func TestDecode_UnterminatedHeader(t *testing.T) {
	in := "---\ntitle: x\nno closing\n"
	res := Inspect(in)
	assert.False(t, res.HasHeader)
	assert.Equal(t, in, res.Body)
	assert.Equal(t, 0, res.Record.Len())
	require.Len(t, res.Warnings, 1)
}

func TestDecode_BodyUnchanged(t *testing.T) {
	body := "\n# Heading\n\n---\nlooks like a header\n---\n<div>markup</div>\r\n"
	rec, got := Decode("---\ntitle: t\n---\n" + body)
	assert.Equal(t, body, got)
	assert.Equal(t, 1, rec.Len())
}

func TestDecode_Values(t *testing.T) {
	in := "---\n" +
		"title: Bare text\n" +
		"quoted: 'single'\n" +
		"escaped: \"a \\\"b\\\" c\"\n" +
		"year: 2024\n" +
		"neg: -1.5e3\n" +
		"yes: true\n" +
		"no: false\n" +
		"notbool: \"true\"\n" +
		"inf: Infinity\n" +
		"url: https://example.com/a:b\n" +
		"tags:\n" +
		"  - go\n" +
		"  - 'web dev'\n" +
		"  - \"quoted\"\n" +
		"nothing:\n" +
		"---\n"
	rec, _ := Decode(in)

	want := NewRecord(
		Field{"title", Text("Bare text")},
		Field{"quoted", Text("single")},
		Field{"escaped", Text(`a "b" c`)},
		Field{"year", Number(2024)},
		Field{"neg", Number(-1500)},
		Field{"yes", Boolean(true)},
		Field{"no", Boolean(false)},
		Field{"notbool", Text("true")},
		Field{"inf", Text("Infinity")},
		Field{"url", Text("https://example.com/a:b")},
		Field{"tags", List("go", "web dev", "quoted")},
		Field{"nothing", Absent()},
	)
	assert.True(t, want.Equal(rec), "got %v", rec.Fields())
}

func TestDecode_QuotedNumberIsCoerced(t *testing.T) {
	res := Inspect("---\nversion: \"1.0\"\n---\n")
	v, _ := res.Record.Get("version")
	assert.True(t, v.Equal(Number(1)))
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0].Reason, "decoded as a number")
}

func TestDecode_ListItemsNotCoerced(t *testing.T) {
	rec, _ := Decode("---\nyears:\n- 2023\n- true\n---\n")
	v, _ := rec.Get("years")
	items, ok := v.AsList()
	require.True(t, ok)
	assert.Equal(t, []string{"2023", "true"}, items)
}

func TestDecode_ListFlushedByNextKey(t *testing.T) {
	rec, _ := Decode("---\ntags:\n- a\n- b\ntitle: t\n---\n")
	assert.Equal(t, []string{"tags", "title"}, rec.Keys())
	v, _ := rec.Get("tags")
	assert.True(t, v.Equal(List("a", "b")))
}

func TestDecode_LenientSkipsMalformed(t *testing.T) {
	in := "---\n" +
		"title: ok\n" +
		"this line is junk\n" +
		"- stray item\n" +
		"  nested: map\n" +
		"# a comment\n" +
		"\n" +
		"count: 2\n" +
		"---\nbody"
	res := Inspect(in)
	assert.True(t, res.HasHeader)
	assert.Equal(t, "body", res.Body)
	assert.Equal(t, []string{"title", "count"}, res.Record.Keys())
	assert.Len(t, res.Warnings, 3)

	rec, body, err := DecodeStrict(in)
	var perr *PartialDecodeError
	require.True(t, errors.As(err, &perr))
	assert.Len(t, perr.Warnings, 3)
	assert.Equal(t, 2, rec.Len())
	assert.Equal(t, "body", body)
}

func TestDecodeStrict_Clean(t *testing.T) {
	_, _, err := DecodeStrict("---\ntitle: \"x\"\n---\n")
	assert.NoError(t, err)
	_, _, err = DecodeStrict("no header at all")
	assert.NoError(t, err)
}

func TestDecode_DuplicateKeyKeepsPosition(t *testing.T) {
	res := Inspect("---\na: 1\nb: 2\na: 3\n---\n")
	assert.Equal(t, []string{"a", "b"}, res.Record.Keys())
	v, _ := res.Record.Get("a")
	assert.True(t, v.Equal(Number(3)))
	assert.Len(t, res.Warnings, 1)
}

func TestRoundTrip_MultilineCRLFNormalized(t *testing.T) {
	rec := NewRecord(Field{"summary", Text("a\r\nb")})
	got, _ := Decode(EncodeDocument(rec, ""))
	v, _ := got.Get("summary")
	assert.True(t, v.Equal(Text("a\nb")), "summary = %v", v)
}

func TestDecode_CRLFHeader(t *testing.T) {
	rec, body := Decode("---\r\ntitle: \"x\"\r\ntags:\r\n- \"a\"\r\n---\r\nbody\r\n")
	v, _ := rec.Get("title")
	assert.True(t, v.Equal(Text("x")))
	tags, _ := rec.Get("tags")
	assert.True(t, tags.Equal(List("a")))
	assert.Equal(t, "body\r\n", body)
}

func TestDecode_EmptyHeader(t *testing.T) {
	rec, body := Decode("---\n---\nhello")
	assert.Equal(t, 0, rec.Len())
	assert.Equal(t, "hello", body)

	assert.Equal(t, "---\n---\nhello", EncodeDocument(&Record{}, "hello"))
}

func TestRecord_SetDeleteOrder(t *testing.T) {
	var r Record
	r.Set("a", Text("1"))
	r.Set("b", Text("2"))
	r.Set("c", Text("3"))
	r.Set("a", Text("4"))
	assert.Equal(t, []string{"a", "b", "c"}, r.Keys())

	r.Delete("b")
	assert.Equal(t, []string{"a", "c"}, r.Keys())
	v, ok := r.Get("c")
	require.True(t, ok)
	assert.True(t, v.Equal(Text("3")))
	assert.False(t, r.Has("b"))
}

func TestRecord_JSON(t *testing.T) {
	var r Record
	err := json.Unmarshal([]byte(`{"z":"last?","a":1.5,"ok":true,"tags":["x","y"],"none":null}`), &r)
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "ok", "tags", "none"}, r.Keys())

	out, err := json.Marshal(&r)
	require.NoError(t, err)
	assert.Equal(t, `{"z":"last?","a":1.5,"ok":true,"tags":["x","y"],"none":null}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"nested":{"a":1}}`), &r))
	assert.Error(t, json.Unmarshal([]byte(`{"tags":[1,2]}`), &r))
	assert.Error(t, json.Unmarshal([]byte(`[1]`), &r))
}

func TestValue_Accessors(t *testing.T) {
	items := []string{"a"}
	v := List(items...)
	items[0] = "mutated"
	got, _ := v.AsList()
	assert.Equal(t, []string{"a"}, got)

	_, ok := v.AsText()
	assert.False(t, ok)
	assert.True(t, Absent().IsAbsent())
	assert.Equal(t, "number", Number(1).Kind().String())
	assert.Nil(t, Absent().Interface())
}

func TestValidKey(t *testing.T) {
	for _, k := range []string{"title", "og.image", "_private", "2024", "a-b_c"} {
		assert.True(t, ValidKey(k), k)
	}
	for _, k := range []string{"", "-lead", "has space", "colon:", "ünï"} {
		assert.False(t, ValidKey(k), k)
	}
}
