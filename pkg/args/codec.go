// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package args

import (
	"github.com/samber/oops"
	"google.golang.org/protobuf/encoding/protowire"
)

// CodeMalformedArguments is returned by Decode for bytes that Encode could
// not have produced.
const CodeMalformedArguments = "MALFORMED_ARGUMENTS"

// Encode serializes l as a sequence of protobuf wire-format fields, one per
// argument, with the field number carrying the kind. A zero Value has no
// kind and fails with CodeInvalidArgument, so Decode(Encode(l)) always has
// len(l) elements.
func Encode(l List) ([]byte, error) {
	var b []byte
	for i, v := range l {
		switch v.kind {
		case KindString:
			b = protowire.AppendTag(b, protowire.Number(KindString), protowire.BytesType)
			b = protowire.AppendString(b, v.str)
		case KindInt:
			b = protowire.AppendTag(b, protowire.Number(KindInt), protowire.VarintType)
			b = protowire.AppendVarint(b, protowire.EncodeZigZag(int64(v.bits)))
		case KindFloat:
			b = protowire.AppendTag(b, protowire.Number(KindFloat), protowire.Fixed64Type)
			b = protowire.AppendFixed64(b, v.bits)
		case KindBool:
			b = protowire.AppendTag(b, protowire.Number(KindBool), protowire.VarintType)
			b = protowire.AppendVarint(b, v.bits)
		default:
			return nil, oops.Code(CodeInvalidArgument).
				With("index", i).
				With("kind", v.kind.String()).
				Errorf("argument %d has no kind", i)
		}
	}
	return b, nil
}

// Decode parses bytes produced by Encode. An empty input decodes to an
// empty, non-nil list.
func Decode(b []byte) (List, error) {
	l := List{}
	for offset := 0; len(b) > 0; {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, malformed(offset, protowire.ParseError(n))
		}
		b, offset = b[n:], offset+n

		kind := Kind(num)
		if want, ok := wireTypes[kind]; !ok || want != typ {
			return nil, oops.Code(CodeMalformedArguments).
				With("offset", offset).
				With("field", int32(num)).
				With("wire_type", int8(typ)).
				Errorf("unexpected field %d with wire type %d", num, typ)
		}

		var v Value
		switch kind {
		case KindString:
			s, m := protowire.ConsumeString(b)
			if m < 0 {
				return nil, malformed(offset, protowire.ParseError(m))
			}
			v, n = String(s), m
		case KindInt:
			x, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return nil, malformed(offset, protowire.ParseError(m))
			}
			v, n = Int(protowire.DecodeZigZag(x)), m
		case KindFloat:
			x, m := protowire.ConsumeFixed64(b)
			if m < 0 {
				return nil, malformed(offset, protowire.ParseError(m))
			}
			v, n = Value{kind: KindFloat, bits: x}, m
		case KindBool:
			x, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return nil, malformed(offset, protowire.ParseError(m))
			}
			if x > 1 {
				return nil, oops.Code(CodeMalformedArguments).
					With("offset", offset).
					Errorf("bool argument out of range: %d", x)
			}
			v, n = Bool(x == 1), m
		}
		l = append(l, v)
		b, offset = b[n:], offset+n
	}
	return l, nil
}

var wireTypes = map[Kind]protowire.Type{
	KindString: protowire.BytesType,
	KindInt:    protowire.VarintType,
	KindFloat:  protowire.Fixed64Type,
	KindBool:   protowire.VarintType,
}

func malformed(offset int, err error) error {
	return oops.Code(CodeMalformedArguments).
		With("offset", offset).
		Wrapf(err, "decode arguments")
}
