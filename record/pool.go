package record

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/xraph/vesting/pool"
	"github.com/xraph/vesting/types"
)

type poolV1 struct {
	Administrator string     `msgpack:"administrator"`
	Token         string     `msgpack:"token"`
	Mode          string     `msgpack:"mode"`
	TotalFunded   string     `msgpack:"total_funded"`
	TotalClaimed  string     `msgpack:"total_claimed"`
	Release       *releaseV1 `msgpack:"release,omitempty"`
}

type releaseV1 struct {
	StartTime uint64 `msgpack:"start_time"`
	Interval  uint64 `msgpack:"interval"`
	Rounds    uint32 `msgpack:"rounds"`
}

func EncodePool(p *pool.Pool) ([]byte, error) {
	m := &poolV1{
		Administrator: p.Administrator,
		Token:         p.Token,
		Mode:          string(p.Mode),
		TotalFunded:   p.TotalFunded.String(),
		TotalClaimed:  p.TotalClaimed.String(),
	}
	if p.Release != nil {
		m.Release = &releaseV1{
			StartTime: uint64(p.Release.StartTime),
			Interval:  p.Release.Interval,
			Rounds:    p.Release.Rounds,
		}
	}
	return seal(KindPool, PoolVersion, m)
}

func DecodePool(data []byte) (*pool.Pool, error) {
	env, err := open(data, KindPool)
	if err != nil {
		return nil, err
	}
	if env.Version != 1 {
		return nil, fmt.Errorf("%w: pool v%d", ErrUnknownVersion, env.Version)
	}

	var m poolV1
	if err := msgpack.Unmarshal(env.Payload, &m); err != nil {
		return nil, fmt.Errorf("record: decode pool: %w", err)
	}
	funded, err := amountOrZero(m.TotalFunded)
	if err != nil {
		return nil, err
	}
	claimed, err := amountOrZero(m.TotalClaimed)
	if err != nil {
		return nil, err
	}

	p := &pool.Pool{
		Administrator: m.Administrator,
		Token:         m.Token,
		Mode:          pool.Mode(m.Mode),
		TotalFunded:   funded,
		TotalClaimed:  claimed,
	}
	if m.Release != nil {
		p.Release = &pool.Release{
			StartTime: types.Timestamp(m.Release.StartTime),
			Interval:  m.Release.Interval,
			Rounds:    m.Release.Rounds,
		}
	}
	return p, nil
}
