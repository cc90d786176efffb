package codequestion

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/examprep/portal/core"
)

type BlockType string

const (
	TextBlock  BlockType = "text"
	CodeBlock  BlockType = "code"
	ImageBlock BlockType = "image"
)

var ErrBlockIndex = errors.New("block index out of range")

// Block is one piece of a code question body.
// Text holds markdown for text blocks and source code for code blocks.
type Block struct {
	Type     BlockType `json:"type"`
	Text     string    `json:"text,omitempty"`
	Language string    `json:"language,omitempty"`
	ImageRef string    `json:"imageRef,omitempty"`
	HTML     string    `json:"html,omitempty"`
	ImageURL string    `json:"imageUrl,omitempty"`
}

// Validate returns the field errors of b, prefixed with field (eg. "blocks[2]").
func (b Block) Validate(field string) []core.FieldError {
	var errs []core.FieldError
	add := func(name, msg string) {
		errs = append(errs, core.FieldError{Field: field + "." + name, Error: msg})
	}
	switch b.Type {
	case TextBlock:
		if core.CleanString(b.Text) == "" {
			add("text", "this field cannot be blank")
		}
	case CodeBlock:
		if core.CleanString(b.Text) == "" {
			add("text", "this field cannot be blank")
		}
		if core.CleanString(b.Language) == "" {
			add("language", "this field is required")
		}
	case ImageBlock:
		if core.CleanString(b.ImageRef) == "" {
			add("imageRef", "this field is required")
		}
	default:
		add("type", "must be one of: text code image")
	}
	return errs
}

// Blocks is an editable, ordered list of blocks.
type Blocks []Block

func (bs Blocks) check(i int, allowEnd bool) error {
	last := len(bs) - 1
	if allowEnd {
		last = len(bs)
	}
	if i < 0 || i > last {
		return errors.Wrapf(ErrBlockIndex, "%d (len %d)", i, len(bs))
	}
	return nil
}

// Insert puts b at position at, shifting the following blocks; at == len appends.
func (bs Blocks) Insert(at int, b Block) (Blocks, error) {
	if err := bs.check(at, true); err != nil {
		return bs, err
	}
	out := make(Blocks, 0, len(bs)+1)
	out = append(out, bs[:at]...)
	out = append(out, b)
	return append(out, bs[at:]...), nil
}

func (bs Blocks) Update(at int, b Block) (Blocks, error) {
	if err := bs.check(at, false); err != nil {
		return bs, err
	}
	out := append(Blocks(nil), bs...)
	out[at] = b
	return out, nil
}

func (bs Blocks) Remove(at int) (Blocks, error) {
	if err := bs.check(at, false); err != nil {
		return bs, err
	}
	out := make(Blocks, 0, len(bs)-1)
	out = append(out, bs[:at]...)
	return append(out, bs[at+1:]...), nil
}

// Move takes the block at from and places it at to, both indexes of the current list.
func (bs Blocks) Move(from, to int) (Blocks, error) {
	if err := bs.check(from, false); err != nil {
		return bs, err
	}
	if err := bs.check(to, false); err != nil {
		return bs, err
	}
	b := bs[from]
	out, _ := bs.Remove(from)
	return out.Insert(to, b)
}

func (bs Blocks) Validate() []core.FieldError {
	var errs []core.FieldError
	for i, b := range bs {
		errs = append(errs, b.Validate(fmt.Sprintf("blocks[%d]", i))...)
	}
	return errs
}

// Edit is a single editor operation, as sent by the admin screens.
type Edit struct {
	Op    string `json:"op" validate:"required,oneof=insert update remove move"`
	At    int    `json:"at" validate:"min=0"`
	To    int    `json:"to,omitempty" validate:"min=0"`
	Block *Block `json:"block,omitempty"`
}

// Apply runs e against bs.
func (e Edit) Apply(bs Blocks) (Blocks, error) {
	switch e.Op {
	case "insert", "update":
		if e.Block == nil {
			return bs, core.NewFieldError("block", "this field is required")
		}
		if e.Op == "insert" {
			return bs.Insert(e.At, *e.Block)
		}
		return bs.Update(e.At, *e.Block)
	case "remove":
		return bs.Remove(e.At)
	case "move":
		return bs.Move(e.At, e.To)
	default:
		return bs, core.NewFieldError("op", "must be one of: insert update remove move")
	}
}
