// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package load

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// LoadCompressed parses a galaxy source file that has been stored as
// zstd-compressed text, the same treatment ion/blockfmt gives its Ion
// blocks (see ion/blockfmt/convert.go). The galaxy token stream is a
// static ~400-statement asset shipped alongside the binary; shipping
// it compressed and decompressing on load avoids bloating a built
// CLI with the same decision sneller made for its Ion chunks.
func LoadCompressed(r io.Reader) (Globals, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("load: opening zstd stream: %w", err)
	}
	defer dec.Close()
	return Load(dec)
}
