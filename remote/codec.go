// MIT License
//
// Copyright (c) 2024-2026 GoShard Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package remote

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// All control-plane messages are encoded with canonical CBOR so that the
// same logical message always produces identical bytes across nodes.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	if encMode, err = cbor.CanonicalEncOptions().EncMode(); err != nil {
		panic(fmt.Errorf("remote: building cbor encoder: %w", err))
	}
	opts := cbor.DecOptions{
		// reject oversized or absurdly nested payloads from peers
		MaxArrayElements: 1 << 20,
		MaxNestedLevels:  16,
	}
	if decMode, err = opts.DecMode(); err != nil {
		panic(fmt.Errorf("remote: building cbor decoder: %w", err))
	}
}

// Encode serializes a control-plane message to canonical CBOR.
func Encode(message any) ([]byte, error) {
	data, err := encMode.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("remote: encoding %T: %w", message, err)
	}
	return data, nil
}

// Decode deserializes a control-plane message from CBOR into out.
func Decode(data []byte, out any) error {
	if err := decMode.Unmarshal(data, out); err != nil {
		return fmt.Errorf("remote: decoding %T: %w", out, err)
	}
	return nil
}
