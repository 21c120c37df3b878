package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/ericlagergren/decimal/sql/postgres"
	"github.com/lib/pq"

	"gitlab.com/vtindex/backoffice_api/conv"
)

var (
	ErrProfileLevelEmpty      = errors.New("PROFILE_LEVEL_EMPTY")
	ErrProfileBadPercentage   = errors.New("PROFILE_BAD_PERCENTAGE")
	ErrProfileBadUsdPerLot    = errors.New("PROFILE_BAD_USD_PER_LOT")
	ErrProfilePercentageTotal = errors.New("PROFILE_PERCENTAGE_TOTAL")
)

// LevelRule is the rule for a single hierarchy level: either a percentage of
// the trade commission or a fixed USD amount per traded lot.
type LevelRule struct {
	Level      int          `json:"level"`
	Percentage *decimal.Big `json:"percentage,omitempty"`
	UsdPerLot  *decimal.Big `json:"usd_per_lot,omitempty"`
}

// DynamicLevels is the jsonb column holding the per-level rule table.
// It is authoritative over the legacy level_{1..3} scalar columns.
type DynamicLevels []LevelRule

func (l DynamicLevels) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	return string(data), err
}

func (l *DynamicLevels) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	case nil:
		*l = nil
		return nil
	default:
		return errors.New("unsupported type for DynamicLevels")
	}
}

// CommissionProfile is the rule table defining what each IB hierarchy level
// earns, optionally restricted to a set of MT5 trading groups.
type CommissionProfile struct {
	ID                 uint64         `sql:"type:bigint" gorm:"primary_key" json:"id"`
	Name               string         `gorm:"unique" json:"name"`
	UsePercentageBased bool           `gorm:"column:use_percentage_based" json:"use_percentage_based"`
	DynamicLevels      DynamicLevels  `gorm:"column:dynamic_levels" sql:"type:jsonb" json:"dynamic_levels"`
	ApprovedGroups     pq.StringArray `gorm:"column:approved_groups;type:text[]" json:"approved_groups"`

	// Legacy scalar columns kept in sync on save for older reporting queries.
	// Readers must prefer DynamicLevels.
	Level1Percentage *postgres.Decimal `gorm:"column:level_1_percentage" sql:"type:decimal(6,2)" json:"-"`
	Level2Percentage *postgres.Decimal `gorm:"column:level_2_percentage" sql:"type:decimal(6,2)" json:"-"`
	Level3Percentage *postgres.Decimal `gorm:"column:level_3_percentage" sql:"type:decimal(6,2)" json:"-"`
	Level1UsdPerLot  *postgres.Decimal `gorm:"column:level_1_usd_per_lot" sql:"type:decimal(8,2)" json:"-"`
	Level2UsdPerLot  *postgres.Decimal `gorm:"column:level_2_usd_per_lot" sql:"type:decimal(8,2)" json:"-"`
	Level3UsdPerLot  *postgres.Decimal `gorm:"column:level_3_usd_per_lot" sql:"type:decimal(8,2)" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MaxLevels is the hierarchy depth this profile covers. The level table may
// be sparse, so the deepest declared level wins over the entry count.
func (p *CommissionProfile) MaxLevels() int {
	max := 0
	for _, rule := range p.DynamicLevels {
		if rule.Level > max {
			max = rule.Level
		}
	}
	return max
}

// PercentageForLevel resolves the percentage for an absolute hierarchy level.
// DynamicLevels wins; the legacy scalar columns only back levels 1-3.
func (p *CommissionProfile) PercentageForLevel(level int) *decimal.Big {
	for _, rule := range p.DynamicLevels {
		if rule.Level == level && rule.Percentage != nil {
			return rule.Percentage
		}
	}
	if legacy := p.legacyPercentage(level); legacy != nil && legacy.V != nil {
		return legacy.V
	}
	return conv.NewDecimalWithPrecision()
}

// UsdPerLotForLevel resolves the fixed USD-per-lot amount for an absolute
// hierarchy level, with the same legacy fallback as PercentageForLevel.
func (p *CommissionProfile) UsdPerLotForLevel(level int) *decimal.Big {
	for _, rule := range p.DynamicLevels {
		if rule.Level == level && rule.UsdPerLot != nil {
			return rule.UsdPerLot
		}
	}
	if legacy := p.legacyUsdPerLot(level); legacy != nil && legacy.V != nil {
		return legacy.V
	}
	return conv.NewDecimalWithPrecision()
}

// IsGroupApproved is true when the profile has no group restriction or the
// given MT5 group is listed.
func (p *CommissionProfile) IsGroupApproved(groupName string) bool {
	if len(p.ApprovedGroups) == 0 {
		return true
	}
	for _, group := range p.ApprovedGroups {
		if group == groupName {
			return true
		}
	}
	return false
}

func (p *CommissionProfile) legacyPercentage(level int) *postgres.Decimal {
	switch level {
	case 1:
		return p.Level1Percentage
	case 2:
		return p.Level2Percentage
	case 3:
		return p.Level3Percentage
	default:
		return nil
	}
}

func (p *CommissionProfile) legacyUsdPerLot(level int) *postgres.Decimal {
	switch level {
	case 1:
		return p.Level1UsdPerLot
	case 2:
		return p.Level2UsdPerLot
	case 3:
		return p.Level3UsdPerLot
	default:
		return nil
	}
}

// SyncLegacyColumns copies levels 1-3 of the dynamic table into the scalar
// columns. Must be called before every save.
func (p *CommissionProfile) SyncLegacyColumns() {
	for _, rule := range p.DynamicLevels {
		if rule.Level < 1 || rule.Level > 3 {
			continue
		}
		pct := &postgres.Decimal{V: rule.Percentage}
		usd := &postgres.Decimal{V: rule.UsdPerLot}
		switch rule.Level {
		case 1:
			p.Level1Percentage, p.Level1UsdPerLot = pct, usd
		case 2:
			p.Level2Percentage, p.Level2UsdPerLot = pct, usd
		case 3:
			p.Level3Percentage, p.Level3UsdPerLot = pct, usd
		}
	}
}

var (
	maxPercentage = decimal.New(100, 0)
	maxUsdPerLot  = decimal.New(1000, 0)
)

// Validate enforces the write-side profile invariants: every level carries a
// rule, percentages stay in [0,100], usd-per-lot in [0,1000] and the total
// percentage across levels never exceeds 100.
func (p *CommissionProfile) Validate() error {
	totalPct := conv.NewDecimalWithPrecision()
	for _, rule := range p.DynamicLevels {
		if rule.Level < 1 {
			return ErrProfileLevelEmpty
		}
		if rule.Percentage == nil && rule.UsdPerLot == nil {
			return ErrProfileLevelEmpty
		}
		if rule.Percentage != nil {
			if rule.Percentage.Sign() < 0 || rule.Percentage.Cmp(maxPercentage) > 0 {
				return ErrProfileBadPercentage
			}
			totalPct.Add(totalPct, rule.Percentage)
		}
		if rule.UsdPerLot != nil {
			if rule.UsdPerLot.Sign() < 0 || rule.UsdPerLot.Cmp(maxUsdPerLot) > 0 {
				return ErrProfileBadUsdPerLot
			}
		}
	}
	if p.UsePercentageBased && totalPct.Cmp(maxPercentage) > 0 {
		return ErrProfilePercentageTotal
	}
	return nil
}

// ProfileGroupOverride replaces the per-level USD amounts of a profile for a
// single trading group. Unique on (profile, group).
type ProfileGroupOverride struct {
	ID        uint64      `sql:"type:bigint" gorm:"primary_key" json:"id"`
	ProfileID uint64      `gorm:"column:profile_id" json:"profile_id"`
	GroupName string      `gorm:"column:group_name" json:"group_name"`
	Amounts   DecimalList `gorm:"column:amounts" sql:"type:jsonb" json:"amounts"`
	CreatedAt time.Time   `json:"created_at"`
}

// AmountAt returns the override amount for an absolute level, zero when the
// level falls outside the configured list.
func (o *ProfileGroupOverride) AmountAt(level int) *decimal.Big {
	idx := level - 1
	if idx < 0 || idx >= len(o.Amounts) || o.Amounts[idx] == nil {
		return conv.NewDecimalWithPrecision()
	}
	return o.Amounts[idx]
}

// CommissionProfileList structure
type CommissionProfileList struct {
	Profiles []CommissionProfile `json:"profiles"`
	Meta     PagingMeta          `json:"meta"`
}

// CommissionProfileRequest binds profile create/update payloads
type CommissionProfileRequest struct {
	Name               string        `form:"name" json:"name" binding:"required"`
	UsePercentageBased bool          `form:"use_percentage_based" json:"use_percentage_based"`
	DynamicLevels      DynamicLevels `json:"dynamic_levels" binding:"required"`
	ApprovedGroups     []string      `json:"approved_groups"`
}
