package vm

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// ImageVersion is bumped whenever the instruction set changes shape.
const ImageVersion = 1

var imageMagic = []byte("MBC1")

var ErrBadImage = errors.New("not a marrow program image")

// Image is the serializable form of a Program.
type Image struct {
	Version   int            `cbor:"1,keyasint" msgpack:"version"`
	Code      []ImageOp      `cbor:"2,keyasint" msgpack:"code"`
	Functions map[string]int `cbor:"3,keyasint" msgpack:"functions"`
}

// ImageOp flattens an Op. Only literal kinds ever appear in Val, so the
// literal is stored as a kind tag plus the matching field.
type ImageOp struct {
	Code Opcode  `cbor:"1,keyasint" msgpack:"c"`
	Arg  int     `cbor:"2,keyasint,omitempty" msgpack:"a"`
	Kind Kind    `cbor:"3,keyasint,omitempty" msgpack:"k"`
	Num  float64 `cbor:"4,keyasint,omitempty" msgpack:"n"`
	Str  string  `cbor:"5,keyasint,omitempty" msgpack:"s"`
	Bool bool    `cbor:"6,keyasint,omitempty" msgpack:"b"`
	Lit  bool    `cbor:"7,keyasint,omitempty" msgpack:"l"`
}

func (p *Program) Image() *Image {
	img := &Image{
		Version:   ImageVersion,
		Code:      make([]ImageOp, len(p.Code)),
		Functions: make(map[string]int, len(p.Functions)),
	}
	for k, v := range p.Functions {
		img.Functions[k] = v
	}
	for i, op := range p.Code {
		iop := ImageOp{Code: op.Code, Arg: op.Arg}
		if op.Val != nil {
			iop.Lit = true
			iop.Kind = op.Val.Kind()
			switch v := op.Val.(type) {
			case BoolValue:
				iop.Bool = bool(v)
			case NumberValue:
				iop.Num = float64(v)
			case StrValue:
				iop.Str = string(v)
			}
		}
		img.Code[i] = iop
	}
	return img
}

func (img *Image) Program() (*Program, error) {
	if img.Version != ImageVersion {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrBadImage, img.Version, ImageVersion)
	}
	p := &Program{
		Code:      make([]Op, len(img.Code)),
		Functions: make(map[string]int, len(img.Functions)),
	}
	for k, v := range img.Functions {
		p.Functions[k] = v
	}
	for i, iop := range img.Code {
		if iop.Code >= OpcodeMax {
			return nil, fmt.Errorf("%w: bad opcode %d at %d", ErrBadImage, iop.Code, i)
		}
		op := Op{Code: iop.Code, Arg: iop.Arg}
		if iop.Lit {
			switch iop.Kind {
			case NullKind:
				op.Val = Null
			case BoolKind:
				op.Val = BoolValue(iop.Bool)
			case NumberKind:
				op.Val = NumberValue(iop.Num)
			case StringKind:
				op.Val = StrValue(iop.Str)
			default:
				return nil, fmt.Errorf("%w: literal of kind %s at %d", ErrBadImage, iop.Kind, i)
			}
		}
		p.Code[i] = op
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadImage, err)
	}
	return p, nil
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// EncodeImage writes prog as a magic header followed by canonical CBOR.
func EncodeImage(w io.Writer, prog *Program) error {
	data, err := cborEncMode.Marshal(prog.Image())
	if err != nil {
		return err
	}
	if _, err := w.Write(imageMagic); err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func DecodeImage(r io.Reader) (*Program, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(data, imageMagic) {
		return nil, ErrBadImage
	}
	var img Image
	if err := cbor.Unmarshal(data[len(imageMagic):], &img); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadImage, err)
	}
	return img.Program()
}
