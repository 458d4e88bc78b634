package config

// CapTier is the market-capitalization class of a listed stock
type CapTier string

const (
	CapTierLarge CapTier = "LARGE"
	CapTierMid   CapTier = "MID"
	CapTierSmall CapTier = "SMALL"
)

// ReferenceOverrides extend the built-in reference tables from configuration
type ReferenceOverrides struct {
	LotSizes      map[string]int64  `yaml:"lot_sizes,omitempty" json:"lot_sizes,omitempty"`
	Sectors       map[string]string `yaml:"sectors,omitempty" json:"sectors,omitempty"`
	LargeCap      []string          `yaml:"large_cap,omitempty" json:"large_cap,omitempty"`
	MidCap        []string          `yaml:"mid_cap,omitempty" json:"mid_cap,omitempty"`
	StateOwned    []string          `yaml:"state_owned,omitempty" json:"state_owned,omitempty"`
	SanctionsRisk []string          `yaml:"sanctions_sensitive,omitempty" json:"sanctions_sensitive,omitempty"`
}

// ReferenceData holds the static symbol tables. It is built once and only read afterwards.
type ReferenceData struct {
	lotSizes   map[string]int64
	sectors    map[string]string
	largeCap   map[string]struct{}
	midCap     map[string]struct{}
	stateOwned map[string]struct{}
	sanctions  map[string]struct{}
	blueChips  map[string]struct{}
}

var defaultLotSizes = map[string]int64{
	"SBER": 10, "GAZP": 10, "LKOH": 1, "ROSN": 1, "NVTK": 1,
	"GMKN": 1, "YNDX": 1, "MGNT": 1, "MTSS": 10, "RTKM": 10,
	"AFLT": 10, "ALRS": 1, "CHMF": 1, "FEES": 1, "HYDR": 1000,
	"IRAO": 1000, "MAIL": 1, "MOEX": 10, "NLMK": 1, "PLZL": 1,
	"POLY": 1, "RUAL": 100, "SNGS": 1, "TATN": 1, "TRNFP": 1,
	"VTBR": 10000,
}

var defaultSectors = map[string]string{
	"GAZP": SectorEnergy, "ROSN": SectorEnergy, "LKOH": SectorEnergy, "NVTK": SectorEnergy,
	"SNGS": SectorEnergy, "TATN": SectorEnergy, "TRNFP": SectorEnergy,

	"SBER": SectorFinancial, "VTBR": SectorFinancial, "TCSG": SectorFinancial, "BSPB": SectorFinancial,
	"CBOM": SectorFinancial, "AFKS": SectorFinancial, "MOEX": SectorFinancial,

	"GMKN": SectorMaterials, "NLMK": SectorMaterials, "MAGN": SectorMaterials, "CHMF": SectorMaterials,
	"ALRS": SectorMaterials, "RUAL": SectorMaterials, "PHOR": SectorMaterials, "POLY": SectorMaterials,
	"PLZL": SectorMaterials,

	"YNDX": SectorTechnology, "MAIL": SectorTechnology, "VKCO": SectorTechnology, "OZON": SectorTechnology,
	"FIXP": SectorTechnology, "HHRU": SectorTechnology, "DSKY": SectorTechnology, "QIWI": SectorTechnology,

	"MGNT": SectorConsumer, "FIVE": SectorConsumer, "LENT": SectorConsumer, "DIXY": SectorConsumer,

	"MTSS": SectorTelecom, "RTKM": SectorTelecom, "TTLK": SectorTelecom,

	"FEES": SectorUtilities, "MSRS": SectorUtilities, "MRKZ": SectorUtilities, "HYDR": SectorUtilities,
	"IRAO": SectorUtilities, "UPRO": SectorUtilities,

	"PHST": SectorHealthcare, "GEMC": SectorHealthcare,

	"AFLT": SectorIndustrials, "FLOT": SectorIndustrials, "BLNG": SectorIndustrials,

	"PIKK": SectorRealEstate, "LSRG": SectorRealEstate, "ETLN": SectorRealEstate,
}

var defaultLargeCap = []string{
	"SBER", "GAZP", "LKOH", "ROSN", "NVTK", "GMKN", "YNDX", "MTSS", "MGNT", "VTBR",
	"TATN", "SNGS", "NLMK", "ALRS", "CHMF", "MAGN", "PLZL", "RTKM", "AFKS", "MOEX",
}

var defaultMidCap = []string{
	"FEES", "POLY", "RUAL", "PHOR", "AFLT", "FLOT", "CBOM", "TRNFP", "PIKK", "LSRG",
	"TCSG", "OZON", "FIXP", "HHRU", "MAIL", "QIWI", "DSKY", "BSPB", "UPRO", "ETLN",
}

var defaultStateOwned = []string{
	"GAZP", "ROSN", "SBER", "VTBR", "NVTK", "SNGS", "ALRS", "AFLT", "RTKM", "FEES", "FLOT", "TRNFP",
}

var defaultSanctionsSensitive = []string{
	"GAZP", "ROSN", "LKOH", "NVTK", "SNGS", "TATN", "SBER", "VTBR",
	"GMKN", "NLMK", "MAGN", "CHMF", "ALRS", "RUAL", "AFLT",
}

var defaultBlueChips = []string{
	"SBER", "GAZP", "LKOH", "ROSN", "NVTK", "YNDX", "GMKN", "MGNT",
	"MTSS", "VTBR", "ALRS", "SNGS", "TATN", "NLMK", "MAGN",
}

// DefaultReferenceData returns the built-in MOEX tables
func DefaultReferenceData() *ReferenceData {
	return NewReferenceData(ReferenceOverrides{})
}

// NewReferenceData builds the reference tables with overrides applied on top of the defaults
func NewReferenceData(o ReferenceOverrides) *ReferenceData {
	r := &ReferenceData{
		lotSizes:   make(map[string]int64, len(defaultLotSizes)+len(o.LotSizes)),
		sectors:    make(map[string]string, len(defaultSectors)+len(o.Sectors)),
		largeCap:   toSet(defaultLargeCap, o.LargeCap),
		midCap:     toSet(defaultMidCap, o.MidCap),
		stateOwned: toSet(defaultStateOwned, o.StateOwned),
		sanctions:  toSet(defaultSanctionsSensitive, o.SanctionsRisk),
		blueChips:  toSet(defaultBlueChips, nil),
	}
	for k, v := range defaultLotSizes {
		r.lotSizes[k] = v
	}
	for k, v := range o.LotSizes {
		r.lotSizes[k] = v
	}
	for k, v := range defaultSectors {
		r.sectors[k] = v
	}
	for k, v := range o.Sectors {
		r.sectors[k] = v
	}
	for _, s := range o.LargeCap {
		delete(r.midCap, s)
	}
	for _, s := range o.MidCap {
		delete(r.largeCap, s)
	}
	return r
}

func toSet(base, extra []string) map[string]struct{} {
	set := make(map[string]struct{}, len(base)+len(extra))
	for _, s := range base {
		set[s] = struct{}{}
	}
	for _, s := range extra {
		set[s] = struct{}{}
	}
	return set
}

// LotSize returns the exchange lot size for a known symbol
func (r *ReferenceData) LotSize(symbol string) (int64, bool) {
	lot, ok := r.lotSizes[symbol]
	return lot, ok
}

// Sector returns the mapped sector for a known symbol
func (r *ReferenceData) Sector(symbol string) (string, bool) {
	s, ok := r.sectors[symbol]
	return s, ok
}

// CapTier classifies a symbol; anything not listed is small cap
func (r *ReferenceData) CapTier(symbol string) CapTier {
	if _, ok := r.largeCap[symbol]; ok {
		return CapTierLarge
	}
	if _, ok := r.midCap[symbol]; ok {
		return CapTierMid
	}
	return CapTierSmall
}

// IsStateOwned reports membership in the state-controlled issuer set
func (r *ReferenceData) IsStateOwned(symbol string) bool {
	_, ok := r.stateOwned[symbol]
	return ok
}

// IsSanctionsSensitive reports membership in the sanctions-exposed issuer set
func (r *ReferenceData) IsSanctionsSensitive(symbol string) bool {
	_, ok := r.sanctions[symbol]
	return ok
}

// IsBlueChip reports membership in the MOEX blue-chip list
func (r *ReferenceData) IsBlueChip(symbol string) bool {
	_, ok := r.blueChips[symbol]
	return ok
}

// Symbols returns every symbol with a sector mapping, sorted
func (r *ReferenceData) Symbols() []string {
	return sortedKeys(r.sectors)
}

// SectorFor resolves a symbol's sector from the table, then the declared sector, then OTHER
func (r *ReferenceData) SectorFor(symbol, declared string) string {
	if s, ok := r.sectors[symbol]; ok {
		return s
	}
	if declared != "" {
		return declared
	}
	return SectorOther
}
