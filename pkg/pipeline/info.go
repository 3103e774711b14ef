package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"os"

	"github.com/matzehuels/encore/pkg/cache"
	"github.com/matzehuels/encore/pkg/errors"
	"github.com/matzehuels/encore/pkg/problem"
)

// ProblemInfo summarises a problem.
type ProblemInfo struct {
	ID             problem.ID      `json:"id"`
	Variant        problem.Variant `json:"variant"`
	Musicians      int             `json:"musicians"`
	Attendees      int             `json:"attendees"`
	Pillars        int             `json:"pillars"`
	Instruments    int             `json:"instruments"`
	RoomWidth      float64         `json:"room_width"`
	RoomHeight     float64         `json:"room_height"`
	StageWidth     float64         `json:"stage_width"`
	StageHeight    float64         `json:"stage_height"`
	TasteAvg       float64         `json:"taste_avg"`
	TasteMaxAvg    float64         `json:"taste_max_avg"`
	TentativeScore float64         `json:"tentative_score"`
}

// Info summarises problem id. Summaries are cached by file content.
func (r *Runner) Info(ctx context.Context, id problem.ID) (*ProblemInfo, error) {
	if id == 0 || id > problem.LastProblem {
		return nil, invalidID(id)
	}
	path := r.Paths.Problem(id)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "problem %d", id)
		}
		return nil, err
	}

	key := r.Keyer.ProblemKey(uint64(id), cache.Hash(data))
	if cached, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		var info ProblemInfo
		if json.Unmarshal(cached, &info) == nil {
			return &info, nil
		}
	}

	p, err := problem.Read(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	info := &ProblemInfo{
		ID:             id,
		Variant:        problem.VariantFor(id),
		Musicians:      len(p.Musicians),
		Attendees:      len(p.Attendees),
		Pillars:        len(p.Pillars),
		Instruments:    p.Instruments(),
		RoomWidth:      p.RoomWidth,
		RoomHeight:     p.RoomHeight,
		StageWidth:     p.StageWidth,
		StageHeight:    p.StageHeight,
		TasteAvg:       p.TasteAvg(),
		TasteMaxAvg:    p.TasteMaxAvg(),
		TentativeScore: p.TentativeScore(),
	}
	if encoded, err := json.Marshal(info); err == nil {
		if err := r.Cache.Set(ctx, key, encoded, cache.ProblemTTL); err != nil {
			r.Logger.Warn("problem cache write failed", "error", err)
		}
	}
	return info, nil
}
