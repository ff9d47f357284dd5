package edgar

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/insiderwatch/pkg/models"
)

// Form 4 XML layout. Only the paths the monitor needs are mapped; everything
// else in the ownership document is ignored.
type form4Document struct {
	XMLName xml.Name `xml:"ownershipDocument"`
	Issuer  struct {
		TradingSymbol string `xml:"issuerTradingSymbol"`
	} `xml:"issuer"`
	NonDerivativeTable struct {
		Transactions []form4Transaction `xml:"nonDerivativeTransaction"`
	} `xml:"nonDerivativeTable"`
}

type form4Transaction struct {
	TransactionDate struct {
		Value string `xml:"value"`
	} `xml:"transactionDate"`
	Coding struct {
		Code string `xml:"transactionCode"`
	} `xml:"transactionCoding"`
	Amounts struct {
		Shares struct {
			Value string `xml:"value"`
		} `xml:"transactionShares"`
		PricePerShare struct {
			Value string `xml:"value"`
		} `xml:"transactionPricePerShare"`
	} `xml:"transactionAmounts"`
}

// ParseForm4 parses the XML of one Form 4 ownership document into the issuer
// ticker and its non-derivative transactions.
//
// Numeric fields that are absent or unparseable become zero; a single bad
// field degrades the computed value but never aborts the filing. The only
// error case is XML that does not decode.
func ParseForm4(raw []byte) (*models.FilingData, error) {
	var doc form4Document
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse form 4 XML: %w", err)
	}

	data := &models.FilingData{
		Ticker:        strings.TrimSpace(doc.Issuer.TradingSymbol),
		TotalValueUSD: decimal.Zero,
	}

	for _, tx := range doc.NonDerivativeTable.Transactions {
		shares := parseDecimal(tx.Amounts.Shares.Value)
		price := parseDecimal(tx.Amounts.PricePerShare.Value)
		value := shares.Mul(price)

		data.Transactions = append(data.Transactions, models.Transaction{
			Date:   strings.TrimSpace(tx.TransactionDate.Value),
			Code:   strings.TrimSpace(tx.Coding.Code),
			Shares: shares,
			Price:  price,
			Value:  value,
		})
		data.TotalValueUSD = data.TotalValueUSD.Add(value)
	}

	return data, nil
}

// parseDecimal converts an EDGAR numeric field to a decimal, yielding zero for
// anything that does not parse.
func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}
