// Package rlm detects reverse line movement: the betting line moving against
// the side the public money is on, which usually means sharp money took the
// other side.
package rlm

import (
	"github.com/shopspring/decimal"
)

// Side is the side of a market the public percentage refers to.
type Side string

const (
	SideOver  Side = "over"
	SideUnder Side = "under"
)

// Strength grades how far the line moved against the public.
type Strength string

const (
	StrengthNone     Strength = "none"
	StrengthModerate Strength = "moderate"
	StrengthStrong   Strength = "strong"
)

// SignalKind names the direction the sharp money appears to be on.
type SignalKind string

const (
	SignalNeutral    SignalKind = "neutral"
	SignalSharpOver  SignalKind = "sharp_over"
	SignalSharpUnder SignalKind = "sharp_under"
)

// Signal is the classification result. It is a pure function of its inputs
// and carries no identity of its own.
type Signal struct {
	Detected   bool       `json:"detected"`
	Strength   Strength   `json:"strength"`
	Signal     SignalKind `json:"signal"`
	LineMoved  float64    `json:"lineMoved"`
	PublicSide Side       `json:"publicSide"`
}

// Classification thresholds. These are the contract: a move of more than half
// a point against a >60% public side is a signal, more than 1.5 points is a
// strong one.
var (
	moveThreshold   = decimal.NewFromFloat(0.5)
	strongThreshold = decimal.NewFromFloat(1.5)
	publicHeavy     = decimal.NewFromInt(60)
	publicLight     = decimal.NewFromInt(40)
	publicEven      = decimal.NewFromInt(50)
	hundred         = decimal.NewFromInt(100)
)

// Classify compares the opening and current lines against where the public
// money sits. Line math is done in decimals so half-point thresholds compare
// exactly.
func Classify(openingLine, currentLine, publicMoneyPercent float64, side Side) Signal {
	moved := decimal.NewFromFloat(currentLine).Sub(decimal.NewFromFloat(openingLine))

	publicOnOver := decimal.NewFromFloat(publicMoneyPercent)
	if side != SideOver {
		publicOnOver = hundred.Sub(publicOnOver)
	}

	sig := Signal{
		Strength:   StrengthNone,
		Signal:     SignalNeutral,
		LineMoved:  moved.InexactFloat64(),
		PublicSide: SideUnder,
	}
	if publicOnOver.GreaterThan(publicEven) {
		sig.PublicSide = SideOver
	}

	switch {
	case publicOnOver.GreaterThan(publicHeavy) && moved.LessThan(moveThreshold.Neg()):
		// Public hammering the over while the line drops: sharps on the under.
		sig.Detected = true
		sig.Signal = SignalSharpUnder
		sig.Strength = StrengthModerate
		if moved.LessThan(strongThreshold.Neg()) {
			sig.Strength = StrengthStrong
		}
	case publicOnOver.LessThan(publicLight) && moved.GreaterThan(moveThreshold):
		sig.Detected = true
		sig.Signal = SignalSharpOver
		sig.Strength = StrengthModerate
		if moved.GreaterThan(strongThreshold) {
			sig.Strength = StrengthStrong
		}
	}

	return sig
}
