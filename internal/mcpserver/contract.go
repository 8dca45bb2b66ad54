package mcpserver

// NoteGrammar describes the markup understood by the zettel renderer. LLM
// consumers should follow it when writing note bodies.
const NoteGrammar = `# zettel Note Grammar

A note is a title and a plain-text body. The title is the file name stem:
the body is stored verbatim in "<title>.md" at the top level of the archive.
Bodies are trimmed of leading and trailing whitespace on save.

## Titles

- Must not be empty or whitespace only.
- Must not contain "/" or "\" and must not be "." or "..".
- Surrounding whitespace is removed.

## Line kinds

Every line is classified on its own, after trimming surrounding whitespace:

1. ` + "`# text`" + `, ` + "`## text`" + `, ` + "`### text`" + ` are headings of level 1 to 3. The
   heading text is shown as is: inline markers inside a heading are not styled.
   ` + "`#### text`" + ` and ` + "`#text`" + ` (no space) are ordinary text.
2. ` + "`![name.png]`" + ` alone on a line embeds an image from the archive's
   ` + "`images/`" + ` directory. Anything else on the same line makes it ordinary text.
3. Every other line is text with inline styles.

## Inline styles

- ` + "`**bold**`" + `
- ` + "`*italic*`" + `
- ` + "`_underline_`" + `

Styles do not nest: the content between delimiters is shown verbatim. An
opening delimiter without a closing one is shown literally. There is no
escaping.

## Images

- Import images with the ` + "`import_image`" + ` tool. It returns the name and a
  ready-to-paste token such as ` + "`![3fa2c1d0.png]`" + `.
- Supported formats: png, jpg, jpeg, gif, bmp.
- A token naming a missing file renders as "[Missing image: name]".

## Example

` + "```" + `
# Trip
**Packing** list for *Saturday*
_do not forget_ the tickets
![map.png]
## Notes
snake_case stays literal
` + "```" + `
`
