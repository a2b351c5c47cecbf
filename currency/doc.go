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

// Package currency provides ISO 4217 currency validation and metadata
// for FOCUS cost fields: code validation (IsValid), minor-unit
// precision (Decimals, RoundToMinorUnits), and display formatting
// (GetSymbol, FormatAmount) for the ~180 active currencies.
//
// focus/validate uses IsValid against billing_currency and
// pricing_currency; mapping.Run uses RoundToMinorUnits to normalize
// every cost field to its currency's native precision before a record
// reaches storage.
//
// References:
//   - ISO 4217: https://www.iso.org/iso-4217-currency-codes.html
//   - FOCUS 1.2 Specification: https://focus.finops.org
package currency
