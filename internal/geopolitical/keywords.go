package geopolitical

import "strings"

// Keyword stems are lowercase and matched as substrings. Russian and English forms sit side by side.
var (
	geopoliticalKeywords = []string{
		"санкц", "sanction", "эмбарго", "embargo", "конфликт", "conflict",
		"геополит", "geopolit", "нато", "nato", "евросоюз", "european union",
		"военн", "military", "переговор", "negotiat", "дипломат", "diplomat",
		"напряженн", "tension", "ограничен", "restriction",
	}

	sanctionsKeywords = []string{
		"санкц", "sanction", "эмбарго", "embargo", "ограничительн",
		"черный список", "blacklist", "заморозк", "asset freeze", "sdn",
	}

	policyKeywords = []string{
		"ключевая ставка", "ключевую ставку", "центробанк", "цб рф", "банк россии",
		"key rate", "central bank", "регулир", "regulat", "закон", "legislat",
		"налог", "tax", "минфин", "ministry of finance", "policy", "политик",
	}

	policyNegativeKeywords = []string{
		"ужесточ", "tighten", "запрет", "prohibit", "повышени", "hike",
		"ограничен", "restrict", "штраф", "penalt", "негатив", "negative",
	}

	stressKeywords = map[string][]string{
		StressVolatility: {
			"волатильн", "volatil", "колебан", "swing", "турбулентн", "turbulen",
		},
		StressCrisis: {
			"кризис", "crisis", "обвал", "crash", "дефолт", "sovereign default", "рецесс", "recession",
		},
		StressUncertainty: {
			"неопределенн", "uncertain", "непредсказуем", "unpredictab", "неясн", "unclear",
		},
		StressPanic: {
			"паник", "panic", "распродаж", "sell-off", "selloff", "бегство", "flight to safety", "capitulat",
		},
	}

	sectorKeywords = map[string][]string{
		SectorEnergy: {
			"нефт", "газ", "энергет", "crude", "oil and gas", "natural gas", "energy", "lng", "спг",
		},
		SectorBanking: {
			"банк", "bank", "кредит", "credit", "сбербанк", "втб", "swift",
		},
		SectorTechnology: {
			"технолог", "technolog", "софт", "software", "полупроводник", "semiconductor", "чип", "chip",
		},
		SectorMetals: {
			"металл", "metal", "сталь", "steel", "алюмин", "alumin", "никел", "nickel", "золот", "gold",
		},
		SectorTelecommunications: {
			"телеком", "telecom", "связь", "ростелеком", "mobile operator",
		},
		SectorRetail: {
			"ритейл", "retail", "розниц", "магнит", "x5", "consumer",
		},
		SectorTransportation: {
			"транспорт", "transport", "авиа", "airline", "аэрофлот", "aeroflot", "логистик", "logistic", "shipping",
		},
	}

	sectorNegativeKeywords = []string{
		"санкц", "sanction", "запрет", "prohibit", "убыт", "loss", "паден", "decline",
		"снижен", "fall", "ограничен", "restrict", "кризис", "crisis",
	}
)

// countKeywords counts how many distinct keywords occur in text
func countKeywords(text string, keywords []string) int {
	n := 0
	for _, k := range keywords {
		if strings.Contains(text, k) {
			n++
		}
	}
	return n
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
