package document

import (
	"fmt"
	"sort"
	"strings"
	"time"

	franchiseedomain "github.com/treadstone/maxtt-billing/internal/franchisee/domain"
)

// gstStateNumToAbbr maps the two-digit GSTIN state prefix to the postal
// abbreviation printed on invoices.
var gstStateNumToAbbr = map[string]string{
	"01": "JK", "02": "HP", "03": "PB", "04": "CH", "05": "UK",
	"06": "HR", "07": "DL", "08": "RJ", "09": "UP", "10": "BR",
	"11": "SK", "12": "AR", "13": "NL", "14": "MN", "15": "MZ",
	"16": "TR", "17": "ML", "18": "AS", "19": "WB", "20": "JH",
	"21": "OD", "22": "CG", "23": "MP", "24": "GJ", "26": "DD",
	"27": "MH", "29": "KA", "30": "GA", "31": "LD", "32": "KL",
	"33": "TN", "34": "PY", "35": "AN", "36": "TS", "37": "AP",
	"38": "LA",
}

// indiaStateAbbr maps lowercase state names to postal abbreviations.
var indiaStateAbbr = map[string]string{
	"jammu and kashmir": "JK", "himachal pradesh": "HP", "punjab": "PB",
	"chandigarh": "CH", "uttarakhand": "UK", "haryana": "HR",
	"delhi": "DL", "rajasthan": "RJ", "uttar pradesh": "UP",
	"bihar": "BR", "sikkim": "SK", "arunachal pradesh": "AR",
	"nagaland": "NL", "manipur": "MN", "mizoram": "MZ",
	"tripura": "TR", "meghalaya": "ML", "assam": "AS",
	"west bengal": "WB", "jharkhand": "JH", "odisha": "OD",
	"chhattisgarh": "CG", "madhya pradesh": "MP", "gujarat": "GJ",
	"daman and diu": "DD", "maharashtra": "MH", "karnataka": "KA",
	"goa": "GA", "lakshadweep": "LD", "kerala": "KL",
	"tamil nadu": "TN", "puducherry": "PY",
	"andaman and nicobar islands": "AN", "telangana": "TS",
	"andhra pradesh": "AP", "ladakh": "LA",
}

// StateAbbr resolves the franchisee's state code for the invoice number.
// Resolution order: the explicit state field, the GSTIN prefix, a state name
// mentioned anywhere in the address, then the unknown placeholder.
func StateAbbr(p franchiseedomain.Profile) string {
	if state := strings.TrimSpace(p.State); state != "" {
		key := strings.ToLower(state)
		if abbr, ok := indiaStateAbbr[key]; ok {
			return abbr
		}
		if len(state) == 2 {
			return strings.ToUpper(state)
		}
	}

	if gstin := strings.TrimSpace(p.GSTIN); len(gstin) >= 2 {
		if abbr, ok := gstStateNumToAbbr[gstin[:2]]; ok {
			return abbr
		}
	}

	if addr := strings.ToLower(p.Address); addr != "" {
		for _, name := range stateNamesByLength() {
			if strings.Contains(addr, name) {
				return indiaStateAbbr[name]
			}
		}
	}

	return "XX"
}

var stateNameOrder []string

// stateNamesByLength returns state names longest first, so an address naming
// two states resolves to the more specific match every time.
func stateNamesByLength() []string {
	if stateNameOrder == nil {
		names := make([]string, 0, len(indiaStateAbbr))
		for name := range indiaStateAbbr {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			if len(names[i]) != len(names[j]) {
				return len(names[i]) > len(names[j])
			}
			return names[i] < names[j]
		})
		stateNameOrder = names
	}
	return stateNameOrder
}

// DisplayCode builds the human invoice number: franchisee code, state,
// zero-padded sequence and month-year of issue.
func DisplayCode(franchiseeCode, stateAbbr string, seq int, issuedAt time.Time) string {
	return fmt.Sprintf("%s/%s/%04d/%s",
		franchiseeCode,
		stateAbbr,
		seq,
		issuedAt.In(istZone).Format("0106"),
	)
}
