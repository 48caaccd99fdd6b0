package cryptbackend

import (
	"crypto/hmac"
)

// NewHMAC creates an HMAC context bound to name and key. Any key length is
// accepted, including zero; key strength is a policy decision of the caller.
// The key is absorbed into the HMAC pads, so the caller may wipe key as soon
// as NewHMAC returns.
func (p *goProvider) NewHMAC(name string, key []byte) (Hash, error) {
	alg, ok := lookupHash(name)
	if !ok {
		return nil, unknownHash("hmac_init", name)
	}
	return &goHash{alg: alg, h: hmac.New(alg.newHash, key), kind: "hmac"}, nil
}
