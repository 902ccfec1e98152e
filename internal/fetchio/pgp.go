package fetchio

import (
	"os"

	"github.com/ProtonMail/gopenpgp/v2/crypto"
	"github.com/tsukumogami/envy/internal/errmsg"
)

// VerifyDetachedSignature checks path against an ASCII-armored detached
// signature using the given ASCII-armored public key. Recipes opt into
// this for sources whose upstream publishes PGP signatures alongside the
// archive; verify_hash covers the common sha256-only case.
func VerifyDetachedSignature(path, armoredSignature, armoredPublicKey string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, &errmsg.FilesystemError{Op: "verify_signature", Path: path, Err: err}
	}

	key, err := crypto.NewKeyFromArmored(armoredPublicKey)
	if err != nil {
		return false, &errmsg.FetchError{Source: path, Err: err}
	}
	keyRing, err := crypto.NewKeyRing(key)
	if err != nil {
		return false, &errmsg.FetchError{Source: path, Err: err}
	}

	sig, err := crypto.NewPGPSignatureFromArmored(armoredSignature)
	if err != nil {
		return false, &errmsg.FetchError{Source: path, Err: err}
	}

	message := crypto.NewPlainMessage(data)
	if err := keyRing.VerifyDetached(message, sig, crypto.GetUnixTime()); err != nil {
		return false, nil
	}
	return true, nil
}
