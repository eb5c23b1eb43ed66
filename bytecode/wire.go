package bytecode

import (
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// Private CBOR tags for operand values that have no native CBOR form.
const (
	tagSymbol   = 55800
	tagPairs    = 55801
	tagRange    = 55802
	tagRegexp   = 55803
	tagRational = 55804
	tagComplex  = 55805
	tagClassRef = 55806
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Marshal serializes a closed sequence to CBOR bytes.
func Marshal(iseq *InstructionSequence) (data []byte, err error) {
	defer RecoverInternal(&err)
	return MarshalArray(iseq.ToA())
}

// MarshalArray serializes an already dumped sequence to CBOR bytes.
func MarshalArray(dumped []any) ([]byte, error) {
	wire, err := toWire(dumped)
	if err != nil {
		return nil, fmt.Errorf("bytecode: marshal: %w", err)
	}
	return cborEncMode.Marshal(wire)
}

// Unmarshal decodes CBOR bytes and loads the sequence they describe.
func Unmarshal(data []byte) (*InstructionSequence, error) {
	dumped, err := UnmarshalArray(data)
	if err != nil {
		return nil, err
	}
	return Load(dumped)
}

// UnmarshalArray decodes CBOR bytes into the nested array form.
func UnmarshalArray(data []byte) ([]any, error) {
	var raw any
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal: %w", err)
	}
	value, err := fromWire(raw)
	if err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal: %w", err)
	}
	arr, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("bytecode: unmarshal: expected array, got %T", value)
	}
	return arr, nil
}

func toWire(v any) (any, error) {
	switch val := v.(type) {
	case nil, bool, int64, float64, string:
		return val, nil
	case int:
		return int64(val), nil
	case *big.Int:
		return val, nil
	case Symbol:
		return cbor.Tag{Number: tagSymbol, Content: string(val)}, nil
	case ClassRef:
		return cbor.Tag{Number: tagClassRef, Content: string(val)}, nil
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			w, err := toWire(e)
			if err != nil {
				return nil, err
			}
			out[i] = w
		}
		return out, nil
	case Pairs:
		flat := make([]any, 0, len(val)*2)
		for _, p := range val {
			k, err := toWire(p.Key)
			if err != nil {
				return nil, err
			}
			w, err := toWire(p.Value)
			if err != nil {
				return nil, err
			}
			flat = append(flat, k, w)
		}
		return cbor.Tag{Number: tagPairs, Content: flat}, nil
	case Range:
		content, err := toWire([]any{val.Begin, val.End, val.ExcludeEnd})
		return cbor.Tag{Number: tagRange, Content: content}, err
	case Regexp:
		return cbor.Tag{Number: tagRegexp, Content: []any{val.Source, int64(val.Options)}}, nil
	case Rational:
		return cbor.Tag{Number: tagRational, Content: []any{val.Num, val.Den}}, nil
	case Complex:
		content, err := toWire([]any{val.Real, val.Imag})
		return cbor.Tag{Number: tagComplex, Content: content}, err
	}
	return nil, fmt.Errorf("unsupported operand %T", v)
}

func fromWire(v any) (any, error) {
	switch val := v.(type) {
	case nil, bool, int64, float64, string:
		return val, nil
	case uint64:
		if val > 1<<63-1 {
			return new(big.Int).SetUint64(val), nil
		}
		return int64(val), nil
	case big.Int:
		return &val, nil
	case *big.Int:
		return val, nil
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			w, err := fromWire(e)
			if err != nil {
				return nil, err
			}
			out[i] = w
		}
		return out, nil
	case cbor.Tag:
		return fromWireTag(val)
	}
	return nil, fmt.Errorf("unexpected wire value %T", v)
}

func fromWireTag(tag cbor.Tag) (any, error) {
	content, err := fromWire(tag.Content)
	if err != nil {
		return nil, err
	}
	switch tag.Number {
	case tagSymbol:
		s, ok := content.(string)
		if !ok {
			return nil, fmt.Errorf("symbol tag holds %T", content)
		}
		return Symbol(s), nil
	case tagClassRef:
		s, ok := content.(string)
		if !ok {
			return nil, fmt.Errorf("class tag holds %T", content)
		}
		return ClassRef(s), nil
	}
	arr, ok := content.([]any)
	if !ok {
		return nil, fmt.Errorf("tag %d holds %T", tag.Number, content)
	}
	switch tag.Number {
	case tagPairs:
		if len(arr)%2 != 0 {
			return nil, fmt.Errorf("odd pair list of length %d", len(arr))
		}
		pairs := make(Pairs, 0, len(arr)/2)
		for i := 0; i < len(arr); i += 2 {
			pairs = append(pairs, Pair{Key: arr[i], Value: arr[i+1]})
		}
		return pairs, nil
	case tagRange:
		if len(arr) != 3 {
			return nil, fmt.Errorf("range of length %d", len(arr))
		}
		exclude, _ := arr[2].(bool)
		return Range{Begin: arr[0], End: arr[1], ExcludeEnd: exclude}, nil
	case tagRegexp:
		if len(arr) != 2 {
			return nil, fmt.Errorf("regexp of length %d", len(arr))
		}
		src, _ := arr[0].(string)
		opts, _ := arr[1].(int64)
		return Regexp{Source: src, Options: int(opts)}, nil
	case tagRational:
		if len(arr) != 2 {
			return nil, fmt.Errorf("rational of length %d", len(arr))
		}
		num, _ := arr[0].(int64)
		den, _ := arr[1].(int64)
		return Rational{Num: num, Den: den}, nil
	case tagComplex:
		if len(arr) != 2 {
			return nil, fmt.Errorf("complex of length %d", len(arr))
		}
		return Complex{Real: arr[0], Imag: arr[1]}, nil
	}
	return nil, fmt.Errorf("unknown tag %d", tag.Number)
}
