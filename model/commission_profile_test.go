package model

import (
	"testing"

	"github.com/ericlagergren/decimal"
	"github.com/ericlagergren/decimal/sql/postgres"
	"github.com/stretchr/testify/assert"
)

func levelPct(level int, pct string) LevelRule {
	v, _ := new(decimal.Big).SetString(pct)
	return LevelRule{Level: level, Percentage: v}
}

func levelUsd(level int, usd string) LevelRule {
	v, _ := new(decimal.Big).SetString(usd)
	return LevelRule{Level: level, UsdPerLot: v}
}

func TestCommissionProfileValidate(t *testing.T) {
	profile := &CommissionProfile{
		Name:               "default",
		UsePercentageBased: true,
		DynamicLevels:      DynamicLevels{levelPct(1, "50"), levelPct(2, "30"), levelPct(3, "20")},
	}
	assert.NoError(t, profile.Validate())

	profile.DynamicLevels = DynamicLevels{levelPct(1, "60"), levelPct(2, "50")}
	assert.Equal(t, ErrProfilePercentageTotal, profile.Validate())

	profile.DynamicLevels = DynamicLevels{levelPct(1, "101")}
	assert.Equal(t, ErrProfileBadPercentage, profile.Validate())

	profile.DynamicLevels = DynamicLevels{levelUsd(1, "1001")}
	assert.Equal(t, ErrProfileBadUsdPerLot, profile.Validate())

	profile.DynamicLevels = DynamicLevels{{Level: 1}}
	assert.Equal(t, ErrProfileLevelEmpty, profile.Validate())

	profile.DynamicLevels = DynamicLevels{levelUsd(0, "5")}
	assert.Equal(t, ErrProfileLevelEmpty, profile.Validate())

	// usd totals are not capped at 100, only percentages are
	profile.UsePercentageBased = false
	profile.DynamicLevels = DynamicLevels{levelUsd(1, "900"), levelUsd(2, "900")}
	assert.NoError(t, profile.Validate())
}

func TestCommissionProfileLevelResolution(t *testing.T) {
	profile := &CommissionProfile{
		DynamicLevels: DynamicLevels{levelPct(1, "40"), levelPct(3, "10")},
	}
	assert.Equal(t, 3, profile.MaxLevels())
	assert.Equal(t, "40", profile.PercentageForLevel(1).String())
	// level 2 is undeclared and has no legacy fallback
	assert.Equal(t, 0, profile.PercentageForLevel(2).Sign())
	assert.Equal(t, "10", profile.PercentageForLevel(3).String())
	assert.Equal(t, 0, profile.PercentageForLevel(4).Sign())
}

func TestCommissionProfileLegacyFallback(t *testing.T) {
	legacy, _ := new(decimal.Big).SetString("25")
	profile := &CommissionProfile{}
	profile.Level2Percentage = &postgres.Decimal{V: legacy}

	assert.Equal(t, "25", profile.PercentageForLevel(2).String())

	// the dynamic table wins when both are present
	profile.DynamicLevels = DynamicLevels{levelPct(2, "15")}
	assert.Equal(t, "15", profile.PercentageForLevel(2).String())
}

func TestIsGroupApproved(t *testing.T) {
	profile := &CommissionProfile{}
	assert.True(t, profile.IsGroupApproved("real\\pro"))

	profile.ApprovedGroups = []string{"real\\standard"}
	assert.True(t, profile.IsGroupApproved("real\\standard"))
	assert.False(t, profile.IsGroupApproved("real\\pro"))
}

func TestGroupOverrideAmountAt(t *testing.T) {
	a1, _ := new(decimal.Big).SetString("7")
	override := &ProfileGroupOverride{Amounts: DecimalList{a1}}
	assert.Equal(t, "7", override.AmountAt(1).String())
	assert.Equal(t, 0, override.AmountAt(2).Sign())
	assert.Equal(t, 0, override.AmountAt(0).Sign())
}
