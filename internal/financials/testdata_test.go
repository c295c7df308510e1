package financials

import (
	"encoding/json"
	"testing"
)

// companyFactsJSON is a trimmed EDGAR companyfacts payload.
const companyFactsJSON = `{
  "cik": 320193,
  "entityName": "Apple Inc.",
  "facts": {
    "dei": {},
    "us-gaap": {
      "Revenues": {
        "label": "Revenues",
        "units": {
          "USD": [
            {"end": "2021-09-25", "val": 365817000000, "form": "10-K", "fy": 2021, "fp": "FY"},
            {"end": "2023-09-30", "val": 383285000000, "form": "10-K", "fy": 2023, "fp": "FY"},
            {"end": "2023-12-30", "val": 119575000000, "form": "10-Q", "fy": 2024, "fp": "Q1"},
            {"end": "2022-09-24", "val": 394328000000, "form": "10-K", "fy": 2022, "fp": "FY"},
            {"end": "2022-09-24", "val": 394328000000, "form": "10-K", "fy": 2023, "fp": "FY"}
          ]
        }
      },
      "NetIncomeLoss": {
        "units": {
          "USD": [
            {"end": "2023-09-30", "val": 96995000000, "form": "10-K"},
            {"end": "2022-09-24", "val": 99803000000, "form": "10-K/A"}
          ]
        }
      },
      "NetCashProvidedByUsedInOperatingActivities": {
        "units": {
          "USD": [
            {"end": "2023-09-30", "val": 110543000000, "form": "10-K"},
            {"end": "2022-09-24", "val": 122151000000, "form": "10-K"}
          ]
        }
      },
      "NetCashProvidedByUsedInInvestingActivities": {
        "units": {
          "USD": [
            {"end": "2023-09-30", "val": 3705000000, "form": "10-K"}
          ]
        }
      },
      "NetCashProvidedByUsedInFinancingActivities": {
        "units": {
          "EUR": [
            {"end": "2023-09-30", "val": 1, "form": "10-K"}
          ],
          "CAD": [
            {"end": "2023-09-30", "val": -108488000000, "form": "10-K"},
            {"end": "2024-09-30", "val": null, "form": "10-K"}
          ]
        }
      }
    }
  }
}`

func loadFixtureFacts(t *testing.T) Facts {
	t.Helper()
	var payload companyFacts
	if err := json.Unmarshal([]byte(companyFactsJSON), &payload); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return payload.Facts["us-gaap"]
}
