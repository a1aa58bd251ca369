package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"github.com/dmitrijs2005/guardian/internal/common"
	"github.com/dmitrijs2005/guardian/internal/logging"
)

// item is the generic JSON shape of a record used by the local and SQL
// backends. Numbers stay json.Number so increments do not lose precision.
type item map[string]any

func toItem(v any) (item, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: encode record: %v", common.ErrValidation, err)
	}
	it, err := parseItem(b)
	if err != nil {
		return nil, fmt.Errorf("%w: record is not an object", common.ErrValidation)
	}
	return it, nil
}

func parseItem(b []byte) (item, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var it item
	if err := dec.Decode(&it); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCorruptRecord, err)
	}
	if it == nil {
		return nil, fmt.Errorf("%w: null record", common.ErrCorruptRecord)
	}
	return it, nil
}

func normalize(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: encode value: %v", common.ErrValidation, err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: encode value: %v", common.ErrValidation, err)
	}
	return out, nil
}

func (it item) key(c Collection) (Key, error) {
	p, ok := it[c.PartitionKey].(string)
	if !ok || p == "" {
		return Key{}, fmt.Errorf("%w: %s: missing %s", common.ErrValidation, c.Name, c.PartitionKey)
	}
	k := Key{Partition: p}
	if c.SortKey != "" {
		s, ok := it[c.SortKey].(string)
		if !ok || s == "" {
			return Key{}, fmt.Errorf("%w: %s: missing %s", common.ErrValidation, c.Name, c.SortKey)
		}
		k.Sort = s
	}
	return k, nil
}

// equalValue compares a stored attribute with a filter or condition value
// after both went through JSON. Types must match: true never equals "true".
func equalValue(stored, want any) bool {
	w, err := normalize(want)
	if err != nil {
		return false
	}
	return jsonEqual(stored, w)
}

func jsonEqual(a, b any) bool {
	switch av := a.(type) {
	case json.Number:
		bv, ok := b.(json.Number)
		if !ok {
			return false
		}
		if av == bv {
			return true
		}
		af, aerr := av.Float64()
		bf, berr := bv.Float64()
		return aerr == nil && berr == nil && af == bf
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !jsonEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, ok := bv[k]
			if !ok || !jsonEqual(v, w) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}

func (it item) matches(f Filter) bool {
	for _, cond := range f {
		v, ok := it[cond.Field]
		if !ok || !equalValue(v, cond.Value) {
			return false
		}
	}
	return true
}

func (it item) clone() item {
	out := make(item, len(it))
	for k, v := range it {
		out[k] = v
	}
	return out
}

func asInt(v any) (int64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case json.Number:
		return n.Int64()
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("%w: not a number: %v", common.ErrCorruptRecord, v)
	}
}

// apply checks the preconditions and then performs the assignments on it.
// Nothing is changed when a precondition fails.
func (it item) apply(u *Update) (item, error) {
	for _, cond := range u.conds {
		v, ok := it[cond.Field]
		if !ok || !equalValue(v, cond.Value) {
			return nil, fmt.Errorf("%w: %s != %v", common.ErrConflict, cond.Field, cond.Value)
		}
	}

	next := it.clone()
	for _, a := range u.sets {
		v, err := normalize(a.value)
		if err != nil {
			return nil, err
		}
		next[a.field] = v
	}
	for _, a := range u.adds {
		cur, err := asInt(next[a.field])
		if err != nil {
			return nil, err
		}
		next[a.field] = json.Number(strconv.FormatInt(cur+a.delta, 10))
	}
	return next, nil
}

func (it item) encode() ([]byte, error) {
	return json.Marshal(it)
}

func (it item) decode(v any) error {
	b, err := json.Marshal(it)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrCorruptRecord, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%w: %v", common.ErrCorruptRecord, err)
	}
	return nil
}

func (it item) decoder() Decoder {
	return it.decode
}

// visitRecord calls visit and swallows decoding failures after logging them,
// so one bad record never fails a whole listing.
func visitRecord(ctx context.Context, log logging.Logger, c Collection, dec Decoder, visit func(Decoder) error) error {
	err := visit(dec)
	if err != nil && errors.Is(err, common.ErrCorruptRecord) {
		log.Warn(ctx, "skipping corrupt record", "collection", c.Name, "error", err.Error())
		return nil
	}
	return err
}
