// Copyright 2026 PulumiCost/FinFocus Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package currency

// IsValid reports whether code is a currently active ISO 4217 currency
// code. Case-sensitive ("usd" is not valid) and excludes withdrawn
// codes (e.g. "DEM").
func IsValid(code string) bool {
	_, ok := currencyByCode[code]
	return ok
}

// Decimals returns code's minor-unit decimal precision, or
// defaultDecimalPlaces if code is unrecognized. Exported so callers
// outside this package (e.g. a validator deciding whether a cost value
// carries more precision than its currency allows) don't need to round
// a value just to learn its scale.
func Decimals(code string) int {
	return getDecimals(code)
}
