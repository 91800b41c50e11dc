package frontmatter

// Document pairs a front-matter record with its free-form body.
type Document struct {
	Record *Record
	Body   string
}

// DecodeDocument splits text into a Document. See Decode.
func DecodeDocument(text string) Document {
	rec, body := Decode(text)
	return Document{Record: rec, Body: body}
}

// EncodeDocument joins the encoded header and body.
func EncodeDocument(rec *Record, body string) string {
	return Encode(rec) + "\n" + body
}

// Encode renders d in document form.
func (d Document) Encode() string {
	return EncodeDocument(d.Record, d.Body)
}
