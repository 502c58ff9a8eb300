package sb2sound

// BendState is the mutable runtime counterpart of a Bend template: how
// many frames remain in the current pause, and how many more times the
// bend may fire.
type BendState struct {
	PauseCount  byte
	LengthCount byte
}

func freshBendState(b Bend) BendState {
	return BendState{PauseCount: 0, LengthCount: b.Length}
}

// stepBends advances exactly one Bend in the array per call (the first
// one found not paused and not exhausted) and returns its rate, or 0 if
// none fired. When every bend has run out and loops is true, every state
// is rewound from its template and 0 is returned.
func stepBends(bends []Bend, states []BendState, loops bool) int16 {
	for i := range bends {
		s := &states[i]
		if s.PauseCount > 0 {
			s.PauseCount--
			continue
		}
		if s.LengthCount == 0 {
			continue
		}
		s.LengthCount--
		s.PauseCount = bends[i].Pause
		return bends[i].Rate
	}
	if loops {
		for i := range bends {
			states[i] = freshBendState(bends[i])
		}
	}
	return 0
}

// EffectState is the per-sequence runtime state of the currently selected
// Effect: two tremolo bend states, three vibrato bend states, the two
// loop-repeat flags set by the LoopFlags opcode, and the accumulated
// volume/period deltas pushed to the sample channel each frame.
type EffectState struct {
	Tremolos [2]BendState
	Vibratos [3]BendState

	TremoloLoops bool
	VibratoLoops bool

	VolAdjust    int16
	PeriodAdjust int16
}

// Reset rewinds both bend arrays from effect's template and clears the two
// accumulators. The loop flags are preserved, per the original driver's
// behavior on a new note.
func (es *EffectState) Reset(effect *Effect) {
	for i := range es.Tremolos {
		es.Tremolos[i] = freshBendState(effect.Tremolos[i])
	}
	for i := range es.Vibratos {
		es.Vibratos[i] = freshBendState(effect.Vibratos[i])
	}
	es.VolAdjust = 0
	es.PeriodAdjust = 0
}

// StepTremolo is named for the opcode-level "tremolo" selector but, per
// the original driver's cross-wiring quirk, actually advances the
// *vibrato* bends and accumulates into PeriodAdjust. The mapping is
// intentional (see DESIGN.md) and must not be "fixed".
func (es *EffectState) StepTremolo(effect *Effect) {
	es.PeriodAdjust += stepBends(effect.Vibratos[:], es.Vibratos[:], es.VibratoLoops)
}

// StepVibrato is named for the opcode-level "vibrato" selector but, per
// the same cross-wiring quirk, actually advances the *tremolo* bends and
// accumulates into VolAdjust.
func (es *EffectState) StepVibrato(effect *Effect) {
	es.VolAdjust += stepBends(effect.Tremolos[:], es.Tremolos[:], es.TremoloLoops)
}
