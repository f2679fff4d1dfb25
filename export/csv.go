// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package export

import (
	"os"

	"github.com/gocarina/gocsv"
	"github.com/reitvault/reitdata/data"
)

// ValuationCSV writes the valuation rows to a CSV snapshot for the
// external chart/report generator. Row order is preserved; an uncomputed
// dividend yield becomes an empty cell.
func ValuationCSV(path string, valuations []*data.ValuationRecord) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fh.Close()

	return gocsv.MarshalFile(&valuations, fh)
}
