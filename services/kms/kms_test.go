package kms

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"reflect"
	"strings"
	"testing"

	"keybox/arn"
)

func newKMS() *KMS {
	k, err := New(Options{
		ArnGenerator: arn.Generator{
			AwsAccountId: "12345",
			Region:       "us-east-1",
		},
	})
	if err != nil {
		panic(err)
	}
	return k
}

func createKey(k *KMS, input CreateKeyInput) (string, string) {
	output, awserr := k.CreateKey(input)
	if awserr != nil {
		panic(awserr)
	}
	return output.KeyMetadata.KeyId, output.KeyMetadata.Arn
}

func newKMSWithKeyReturningARN() (*KMS, string, string) {
	k := newKMS()
	keyId, keyArn := createKey(k, CreateKeyInput{})
	return k, keyId, keyArn
}

func newKMSWithKey() (*KMS, string) {
	k, keyId, _ := newKMSWithKeyReturningARN()
	return k, keyId
}

func TestEncryptionContext(t *testing.T) {
	k, keyId := newKMSWithKey()

	plaintext := []byte("The quick brown fox jumps over the lazy dog")
	context := map[string]string{"k1": "v1", "k2": "v2"}
	encryptOutput, err := k.Encrypt(EncryptInput{
		KeyId:             keyId,
		EncryptionContext: context,
		Plaintext:         plaintext,
	})
	if err != nil {
		t.Fatal(err)
	}

	ciphertext := encryptOutput.CiphertextBlob

	badContexts := []map[string]string{
		nil,
		{"k1": "v1"},
		{"k1": "v2"},
		{"k2": "v2"},
		{"k1": "v2", "k2": "v1"},
	}
	for _, context := range badContexts {
		_, err := k.Decrypt(DecryptInput{
			CiphertextBlob:    ciphertext,
			EncryptionContext: context,
		})
		if err == nil {
			t.Fatal("Expected error, bad context")
		}
	}

	goodContexts := []map[string]string{
		{"k1": "v1", "k2": "v2"},
		{"k2": "v2", "k1": "v1"},
	}
	for _, context := range goodContexts {
		decryptOutput, err := k.Decrypt(DecryptInput{
			CiphertextBlob:    ciphertext,
			EncryptionContext: context,
		})
		if err != nil {
			t.Fatal("Unexpected error, bad context")
		}
		if !bytes.Equal(plaintext, decryptOutput.Plaintext) {
			t.Fatalf("bad encryption result; got %v, want %v", decryptOutput.Plaintext, plaintext)
		}
	}
}

func TestGenerateDataKey(t *testing.T) {
	k, keyId := newKMSWithKey()

	generateOutput, err := k.GenerateDataKey(GenerateDataKeyInput{
		NumberOfBytes: 256,
		KeyId:         keyId,
	})
	if err != nil {
		t.Fatal(err)
	}

	decryptOutput, err := k.Decrypt(DecryptInput{
		CiphertextBlob: generateOutput.CiphertextBlob,
	})
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(generateOutput.Plaintext, decryptOutput.Plaintext) {
		t.Fatalf("bad encryption result; got %v, want %v", decryptOutput.Plaintext, generateOutput.Plaintext)
	}
}

func TestGenerateDataKeyPair(t *testing.T) {
	k, keyId := newKMSWithKey()

	generateOutput, err := k.GenerateDataKeyPair(GenerateDataKeyPairInput{
		KeyId:       keyId,
		KeyPairSpec: "ECC_NIST_P256",
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, parseErr := x509.ParsePKCS8PrivateKey(generateOutput.PrivateKeyPlaintext); parseErr != nil {
		t.Fatal(parseErr)
	}
	if _, parseErr := x509.ParsePKIXPublicKey(generateOutput.PublicKey); parseErr != nil {
		t.Fatal(parseErr)
	}

	decryptOutput, err := k.Decrypt(DecryptInput{
		CiphertextBlob: generateOutput.PrivateKeyCiphertextBlob,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decryptOutput.Plaintext, generateOutput.PrivateKeyPlaintext) {
		t.Fatal("wrapped private key does not round-trip")
	}

	_, err = k.GenerateDataKeyPair(GenerateDataKeyPairInput{
		KeyId:       keyId,
		KeyPairSpec: "FAKE_SPEC",
	})
	if err == nil {
		t.Fatal("Expected error, bad KeyPairSpec")
	}
}

func TestAliasCreateDelete(t *testing.T) {
	k, keyId := newKMSWithKey()

	output, err := k.ListAliases(ListAliasesInput{})
	if err != nil {
		t.Fatal(err)
	}
	if len(output.Aliases) != 0 {
		t.Fatal(output.Aliases)
	}

	_, err = k.CreateAlias(CreateAliasInput{
		AliasName:   "alias/short",
		TargetKeyId: keyId,
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, aliasInput := range []ListAliasesInput{{}, {KeyId: keyId}} {
		output, err = k.ListAliases(aliasInput)
		if err != nil {
			t.Fatal(err)
		}
		if len(output.Aliases) != 1 {
			t.Fatal(output.Aliases)
		}
		alias := output.Aliases[0]
		if alias.AliasName != "alias/short" {
			t.Fatal(alias.AliasName)
		}
		if alias.TargetKeyId != keyId {
			t.Fatal(alias.TargetKeyId)
		}
		if alias.AliasArn != "arn:aws:kms:us-east-1:12345:alias/short" {
			t.Fatal(alias.AliasArn)
		}
	}

	output, err = k.ListAliases(ListAliasesInput{KeyId: "foo"})
	if err != nil {
		t.Fatal(err)
	}
	if len(output.Aliases) != 0 {
		t.Fatal(output.Aliases)
	}

	_, err = k.DeleteAlias(DeleteAliasInput{
		AliasName: "alias/short",
	})
	if err != nil {
		t.Fatal(err)
	}

	output, err = k.ListAliases(ListAliasesInput{})
	if err != nil {
		t.Fatal(err)
	}
	if len(output.Aliases) != 0 {
		t.Fatal(output.Aliases)
	}

	_, err = k.DeleteAlias(DeleteAliasInput{
		AliasName: "alias/short",
	})
	if err == nil {
		t.Fatal("Cannot delete missing alias")
	}
}

func TestAliasNaming(t *testing.T) {
	k, keyId := newKMSWithKey()

	_, err := k.CreateAlias(CreateAliasInput{
		AliasName:   "short",
		TargetKeyId: keyId,
	})
	if err == nil {
		t.Fatal("Illegal alias name")
	}

	_, err = k.CreateAlias(CreateAliasInput{
		AliasName:   "alias/short",
		TargetKeyId: keyId,
	})
	if err != nil {
		t.Fatal("Legal alias name")
	}

	_, err = k.CreateAlias(CreateAliasInput{
		AliasName:   "alias/aws",
		TargetKeyId: keyId,
	})
	if err != nil {
		t.Fatal("Legal alias name")
	}

	_, err = k.CreateAlias(CreateAliasInput{
		AliasName:   "alias/aws/short",
		TargetKeyId: keyId,
	})
	if err == nil {
		t.Fatal("Reserved alias name")
	}

	_, err = k.CreateAlias(CreateAliasInput{
		AliasName:   "alias/short" + strings.Repeat("long", 100),
		TargetKeyId: keyId,
	})
	if err == nil {
		t.Fatal("Long alias name")
	}

	_, err = k.CreateAlias(CreateAliasInput{
		AliasName:   "alias/short$",
		TargetKeyId: keyId,
	})
	if err == nil {
		t.Fatal("Bad character, illegal alias name")
	}
}

func TestUpdateAlias(t *testing.T) {
	k, keyId := newKMSWithKey()
	otherKeyId, _ := createKey(k, CreateKeyInput{})

	_, err := k.UpdateAlias(UpdateAliasInput{
		AliasName:   "alias/mykey",
		TargetKeyId: otherKeyId,
	})
	if err == nil {
		t.Fatal("Cannot update missing alias")
	}

	_, err = k.CreateAlias(CreateAliasInput{
		AliasName:   "alias/mykey",
		TargetKeyId: keyId,
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = k.UpdateAlias(UpdateAliasInput{
		AliasName:   "alias/mykey",
		TargetKeyId: otherKeyId,
	})
	if err != nil {
		t.Fatal(err)
	}

	output, err := k.ListAliases(ListAliasesInput{KeyId: otherKeyId})
	if err != nil {
		t.Fatal(err)
	}
	if len(output.Aliases) != 1 {
		t.Fatal(output.Aliases)
	}
}

func TestEnableDisableKey(t *testing.T) {
	k, keyId := newKMSWithKey()

	plaintext := []byte("The quick brown fox jumps over the lazy dog")
	encryptOutput, err := k.Encrypt(EncryptInput{
		KeyId:     keyId,
		Plaintext: plaintext,
	})
	if err != nil {
		t.Fatal(err)
	}
	ciphertext := encryptOutput.CiphertextBlob

	_, err = k.DisableKey(DisableKeyInput{
		KeyId: keyId,
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = k.Encrypt(EncryptInput{
		KeyId:     keyId,
		Plaintext: plaintext,
	})
	if err == nil {
		t.Fatal("Should not allow")
	}

	_, err = k.Decrypt(DecryptInput{
		KeyId:          keyId,
		CiphertextBlob: ciphertext,
	})
	if err == nil {
		t.Fatal("Should not allow")
	}

	_, err = k.GenerateDataKeyWithoutPlaintext(GenerateDataKeyWithoutPlaintextInput{
		KeyId:         keyId,
		NumberOfBytes: 256,
	})
	if err == nil {
		t.Fatal("Should not allow")
	}

	_, err = k.EnableKey(EnableKeyInput{
		KeyId: keyId,
	})
	if err != nil {
		t.Fatal(err)
	}

	decryptOutput, err := k.Decrypt(DecryptInput{
		KeyId:          keyId,
		CiphertextBlob: ciphertext,
	})
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(plaintext, decryptOutput.Plaintext) {
		t.Fatalf("bad encryption result; got %v, want %v", decryptOutput.Plaintext, plaintext)
	}
}

func TestEncryptDecrypt(t *testing.T) {
	k, keyId, keyArn := newKMSWithKeyReturningARN()

	aliasName := "alias/key"
	_, err := k.CreateAlias(CreateAliasInput{
		AliasName:   aliasName,
		TargetKeyId: keyId,
	})
	if err != nil {
		t.Fatal(err)
	}

	aliasesOutput, err := k.ListAliases(ListAliasesInput{})
	if err != nil {
		t.Fatal(err)
	}

	keyIds := []string{keyId, keyArn, aliasName, aliasesOutput.Aliases[0].AliasArn}
	for _, id := range keyIds {
		plaintext := []byte("The quick brown fox jumps over the lazy dog")
		context := map[string]string{"k1": "v1", "k2": "v2"}
		encryptOutput, err := k.Encrypt(EncryptInput{
			KeyId:             keyId,
			EncryptionContext: context,
			Plaintext:         plaintext,
		})
		if err != nil {
			t.Fatal(err)
		}

		ciphertext := encryptOutput.CiphertextBlob

		decryptOutput, err := k.Decrypt(DecryptInput{
			KeyId:             id,
			CiphertextBlob:    ciphertext,
			EncryptionContext: context,
		})
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(plaintext, decryptOutput.Plaintext) {
			t.Fatalf("bad encryption result; got %v, want %v", decryptOutput.Plaintext, plaintext)
		}
	}
}

func TestInvalidCiphertext(t *testing.T) {
	k, keyId := newKMSWithKey()
	plaintext := []byte("The quick brown fox jumps over the lazy dog")

	context := map[string]string{"k1": "v1", "k2": "v2"}
	encryptOutput, err := k.Encrypt(EncryptInput{
		KeyId:             keyId,
		EncryptionContext: context,
		Plaintext:         plaintext,
	})
	if err != nil {
		t.Fatal(err)
	}

	ciphertext := encryptOutput.CiphertextBlob

	_, err = k.Decrypt(DecryptInput{
		KeyId:          keyId,
		CiphertextBlob: ciphertext,
		// No context
	})
	if !reflect.DeepEqual(err, InvalidCiphertextException("")) {
		t.Fatal("bad err", err)
	}

	_, err = k.Decrypt(DecryptInput{
		KeyId:             keyId,
		CiphertextBlob:    []byte("nope"),
		EncryptionContext: context,
	})
	if !reflect.DeepEqual(err, InvalidCiphertextException("")) {
		t.Fatal("bad err", err)
	}
}

func TestRSAEncryptDecrypt(t *testing.T) {
	k := newKMS()
	keyId, _ := createKey(k, CreateKeyInput{
		KeySpec:  "RSA_2048",
		KeyUsage: "ENCRYPT_DECRYPT",
	})

	plaintext := []byte("The quick brown fox jumps over the lazy dog")
	encryptOutput, err := k.Encrypt(EncryptInput{
		KeyId:               keyId,
		EncryptionAlgorithm: "RSAES_OAEP_SHA_256",
		Plaintext:           plaintext,
	})
	if err != nil {
		t.Fatal(err)
	}

	// Asymmetric ciphertexts are not self-describing; the key must be named.
	_, err = k.Decrypt(DecryptInput{
		CiphertextBlob:      encryptOutput.CiphertextBlob,
		EncryptionAlgorithm: "RSAES_OAEP_SHA_256",
	})
	if err == nil {
		t.Fatal("Expected error without KeyId")
	}

	decryptOutput, err := k.Decrypt(DecryptInput{
		KeyId:               keyId,
		CiphertextBlob:      encryptOutput.CiphertextBlob,
		EncryptionAlgorithm: "RSAES_OAEP_SHA_256",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(plaintext, decryptOutput.Plaintext) {
		t.Fatal(decryptOutput.Plaintext)
	}

	// The default symmetric algorithm is not valid for an RSA key.
	_, err = k.Encrypt(EncryptInput{
		KeyId:     keyId,
		Plaintext: plaintext,
	})
	if err == nil {
		t.Fatal("Expected error for SYMMETRIC_DEFAULT on RSA key")
	}
}

func TestSignVerify(t *testing.T) {
	k := newKMS()

	tests := map[string]struct {
		createInput CreateKeyInput
		algorithm   string
	}{
		"ECC_P256": {
			CreateKeyInput{KeySpec: "ECC_NIST_P256", KeyUsage: "SIGN_VERIFY"},
			"ECDSA_SHA_256",
		},
		"ECC_P384": {
			CreateKeyInput{KeySpec: "ECC_NIST_P384", KeyUsage: "SIGN_VERIFY"},
			"ECDSA_SHA_384",
		},
		"ECC_P521": {
			CreateKeyInput{KeySpec: "ECC_NIST_P521", KeyUsage: "SIGN_VERIFY"},
			"ECDSA_SHA_512",
		},
		"RSA_2048": {
			CreateKeyInput{KeySpec: "RSA_2048", KeyUsage: "SIGN_VERIFY"},
			"RSASSA_PKCS1_V1_5_SHA_256",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			keyId, _ := createKey(k, tc.createInput)
			message := []byte("abc")

			signOutput, err := k.Sign(SignInput{
				KeyId:            keyId,
				Message:          message,
				SigningAlgorithm: tc.algorithm,
			})
			if err != nil {
				t.Fatal(err)
			}

			verifyOutput, err := k.Verify(VerifyInput{
				KeyId:            keyId,
				Message:          message,
				Signature:        signOutput.Signature,
				SigningAlgorithm: tc.algorithm,
			})
			if err != nil {
				t.Fatal(err)
			}
			if !verifyOutput.SignatureValid {
				t.Fatal("signature must verify")
			}

			// A flipped signature byte must invalidate, not error.
			tampered := bytes.Clone(signOutput.Signature)
			tampered[len(tampered)/2] ^= 0x01
			verifyOutput, err = k.Verify(VerifyInput{
				KeyId:            keyId,
				Message:          message,
				Signature:        tampered,
				SigningAlgorithm: tc.algorithm,
			})
			if err != nil {
				t.Fatal(err)
			}
			if verifyOutput.SignatureValid {
				t.Fatal("tampered signature must not verify")
			}

			verifyOutput, err = k.Verify(VerifyInput{
				KeyId:            keyId,
				Message:          []byte("abd"),
				Signature:        signOutput.Signature,
				SigningAlgorithm: tc.algorithm,
			})
			if err != nil {
				t.Fatal(err)
			}
			if verifyOutput.SignatureValid {
				t.Fatal("wrong message must not verify")
			}
		})
	}
}

func TestSignVerifyDigestMessageType(t *testing.T) {
	k := newKMS()
	keyId, _ := createKey(k, CreateKeyInput{KeySpec: "ECC_NIST_P256", KeyUsage: "SIGN_VERIFY"})

	sum := sha256.Sum256([]byte("abc"))
	signOutput, err := k.Sign(SignInput{
		KeyId:            keyId,
		Message:          sum[:],
		MessageType:      "DIGEST",
		SigningAlgorithm: "ECDSA_SHA_256",
	})
	if err != nil {
		t.Fatal(err)
	}

	// RAW over the original message and DIGEST over its hash must agree.
	verifyOutput, err := k.Verify(VerifyInput{
		KeyId:            keyId,
		Message:          []byte("abc"),
		Signature:        signOutput.Signature,
		SigningAlgorithm: "ECDSA_SHA_256",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !verifyOutput.SignatureValid {
		t.Fatal("signature must verify")
	}

	_, err = k.Sign(SignInput{
		KeyId:            keyId,
		Message:          []byte("wrong length"),
		MessageType:      "DIGEST",
		SigningAlgorithm: "ECDSA_SHA_256",
	})
	if err == nil {
		t.Fatal("Expected error for bad digest length")
	}

	_, err = k.Sign(SignInput{
		KeyId:            keyId,
		Message:          sum[:],
		MessageType:      "NONSENSE",
		SigningAlgorithm: "ECDSA_SHA_256",
	})
	if err == nil {
		t.Fatal("Expected error for bad MessageType")
	}
}

func TestSignRejectsBadUsageAndAlgorithm(t *testing.T) {
	k := newKMS()
	symmetricKeyId, _ := createKey(k, CreateKeyInput{})
	eccKeyId, _ := createKey(k, CreateKeyInput{KeySpec: "ECC_NIST_P256", KeyUsage: "SIGN_VERIFY"})

	_, err := k.Sign(SignInput{
		KeyId:            symmetricKeyId,
		Message:          []byte("abc"),
		SigningAlgorithm: "ECDSA_SHA_256",
	})
	if err == nil {
		t.Fatal("Expected error for symmetric key")
	}

	_, err = k.Sign(SignInput{
		KeyId:            eccKeyId,
		Message:          []byte("abc"),
		SigningAlgorithm: "RSASSA_PKCS1_V1_5_SHA_256",
	})
	if err == nil {
		t.Fatal("Expected error for wrong-family algorithm")
	}

	_, err = k.Sign(SignInput{
		KeyId:            eccKeyId,
		Message:          []byte("abc"),
		SigningAlgorithm: "FAKE_ALG",
	})
	if err == nil {
		t.Fatal("Expected error for unknown algorithm")
	}
}

func TestGetPublicKey(t *testing.T) {
	k := newKMS()
	keyId, _ := createKey(k, CreateKeyInput{KeySpec: "ECC_NIST_P256", KeyUsage: "SIGN_VERIFY"})

	output, err := k.GetPublicKey(GetPublicKeyInput{KeyId: keyId})
	if err != nil {
		t.Fatal(err)
	}
	if output.KeySpec != "ECC_NIST_P256" {
		t.Fatal(output.KeySpec)
	}
	if output.KeyUsage != "SIGN_VERIFY" {
		t.Fatal(output.KeyUsage)
	}

	pub, parseErr := x509.ParsePKIXPublicKey(output.PublicKey)
	if parseErr != nil {
		t.Fatal(parseErr)
	}
	eccPub, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		t.Fatalf("got %T", pub)
	}

	// A service-produced signature must verify against the exported key
	// using plain stdlib primitives.
	signOutput, err := k.Sign(SignInput{
		KeyId:            keyId,
		Message:          []byte("abc"),
		SigningAlgorithm: "ECDSA_SHA_256",
	})
	if err != nil {
		t.Fatal(err)
	}
	sum := sha256.Sum256([]byte("abc"))
	if !ecdsa.VerifyASN1(eccPub, sum[:], signOutput.Signature) {
		t.Fatal("exported public key does not verify the signature")
	}

	symmetricKeyId, _ := createKey(k, CreateKeyInput{})
	_, err = k.GetPublicKey(GetPublicKeyInput{KeyId: symmetricKeyId})
	if err == nil {
		t.Fatal("Expected error for symmetric key")
	}
}

func TestImportKeyMaterial(t *testing.T) {
	k := newKMS()

	createOutput, awserr := k.CreateKey(CreateKeyInput{
		KeySpec:  "ECC_NIST_P256",
		KeyUsage: "SIGN_VERIFY",
		Origin:   "EXTERNAL",
	})
	if awserr != nil {
		t.Fatal(awserr)
	}
	keyId := createOutput.KeyMetadata.KeyId
	if createOutput.KeyMetadata.KeyState != "PendingImport" {
		t.Fatal(createOutput.KeyMetadata.KeyState)
	}

	// Unusable until material arrives.
	_, err := k.Sign(SignInput{
		KeyId:            keyId,
		Message:          []byte("abc"),
		SigningAlgorithm: "ECDSA_SHA_256",
	})
	if err == nil {
		t.Fatal("Expected error before import")
	}

	native, genErr := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if genErr != nil {
		t.Fatal(genErr)
	}
	der, genErr := x509.MarshalPKCS8PrivateKey(native)
	if genErr != nil {
		t.Fatal(genErr)
	}

	_, err = k.ImportKeyMaterial(ImportKeyMaterialInput{
		KeyId:                keyId,
		EncryptedKeyMaterial: []byte("garbage"),
	})
	if err == nil {
		t.Fatal("Expected error for bad material")
	}

	_, err = k.ImportKeyMaterial(ImportKeyMaterialInput{
		KeyId:                keyId,
		EncryptedKeyMaterial: der,
	})
	if err != nil {
		t.Fatal(err)
	}

	// The imported private key must produce verifiable signatures.
	signOutput, err := k.Sign(SignInput{
		KeyId:            keyId,
		Message:          []byte("abc"),
		SigningAlgorithm: "ECDSA_SHA_256",
	})
	if err != nil {
		t.Fatal(err)
	}
	sum := sha256.Sum256([]byte("abc"))
	if !ecdsa.VerifyASN1(&native.PublicKey, sum[:], signOutput.Signature) {
		t.Fatal("signature does not verify under the imported key")
	}

	// Importing into an AWS_KMS-origin key is refused.
	internalKeyId, _ := createKey(k, CreateKeyInput{})
	_, err = k.ImportKeyMaterial(ImportKeyMaterialInput{
		KeyId:                internalKeyId,
		EncryptedKeyMaterial: der,
	})
	if err == nil {
		t.Fatal("Expected error for AWS_KMS origin")
	}
}

func TestScheduleKeyDeletion(t *testing.T) {
	k, keyId := newKMSWithKey()

	_, err := k.ScheduleKeyDeletion(ScheduleKeyDeletionInput{
		KeyId:               keyId,
		PendingWindowInDays: 3,
	})
	if err == nil {
		t.Fatal("Expected error for short window")
	}

	output, err := k.ScheduleKeyDeletion(ScheduleKeyDeletionInput{
		KeyId: keyId,
	})
	if err != nil {
		t.Fatal(err)
	}
	if output.KeyState != "PendingDeletion" {
		t.Fatal(output.KeyState)
	}
	if output.PendingWindowInDays != 30 {
		t.Fatal(output.PendingWindowInDays)
	}
	if output.DeletionDate == 0 {
		t.Fatal("no deletion date")
	}

	_, err = k.Encrypt(EncryptInput{
		KeyId:     keyId,
		Plaintext: []byte("abc"),
	})
	if err == nil {
		t.Fatal("Should not allow")
	}

	_, err = k.ScheduleKeyDeletion(ScheduleKeyDeletionInput{KeyId: keyId})
	if err == nil {
		t.Fatal("Cannot schedule twice")
	}

	_, err = k.EnableKey(EnableKeyInput{KeyId: keyId})
	if err == nil {
		t.Fatal("Cannot enable a key pending deletion")
	}

	_, err = k.CancelKeyDeletion(CancelKeyDeletionInput{KeyId: keyId})
	if err != nil {
		t.Fatal(err)
	}

	describeOutput, err := k.DescribeKey(DescribeKeyInput{KeyId: keyId})
	if err != nil {
		t.Fatal(err)
	}
	if describeOutput.KeyMetadata.KeyState != "Disabled" {
		t.Fatal(describeOutput.KeyMetadata.KeyState)
	}

	_, err = k.EnableKey(EnableKeyInput{KeyId: keyId})
	if err != nil {
		t.Fatal(err)
	}
}

func TestDescribeKey(t *testing.T) {
	k := newKMS()
	keyId, keyArn := createKey(k, CreateKeyInput{
		KeySpec:     "ECC_NIST_P256",
		KeyUsage:    "SIGN_VERIFY",
		Description: "signing key",
	})

	output, err := k.DescribeKey(DescribeKeyInput{KeyId: keyId})
	if err != nil {
		t.Fatal(err)
	}
	md := output.KeyMetadata
	if md.KeyId != keyId {
		t.Fatal(md.KeyId)
	}
	if md.Arn != keyArn {
		t.Fatal(md.Arn)
	}
	if md.KeySpec != "ECC_NIST_P256" {
		t.Fatal(md.KeySpec)
	}
	if md.KeyUsage != "SIGN_VERIFY" {
		t.Fatal(md.KeyUsage)
	}
	if md.Description != "signing key" {
		t.Fatal(md.Description)
	}
	if md.KeyState != "Enabled" {
		t.Fatal(md.KeyState)
	}
	if md.Origin != "AWS_KMS" {
		t.Fatal(md.Origin)
	}
	if !reflect.DeepEqual(md.SigningAlgorithms, []string{"ECDSA_SHA_256"}) {
		t.Fatal(md.SigningAlgorithms)
	}

	_, err = k.UpdateKeyDescription(UpdateKeyDescriptionInput{
		KeyId:       keyId,
		Description: "updated",
	})
	if err != nil {
		t.Fatal(err)
	}
	output, err = k.DescribeKey(DescribeKeyInput{KeyId: keyId})
	if err != nil {
		t.Fatal(err)
	}
	if output.KeyMetadata.Description != "updated" {
		t.Fatal(output.KeyMetadata.Description)
	}
}

func TestCreateKeyValidation(t *testing.T) {
	k := newKMS()

	badInputs := map[string]CreateKeyInput{
		"unknown keyspec":         {KeySpec: "FAKE"},
		"unsupported keyspec":     {KeySpec: "SM2", KeyUsage: "SIGN_VERIFY"},
		"bad usage for symmetric": {KeyUsage: "SIGN_VERIFY"},
		"bad usage for ECC":       {KeySpec: "ECC_NIST_P256", KeyUsage: "ENCRYPT_DECRYPT"},
		"missing usage for RSA":   {KeySpec: "RSA_2048"},
		"bad origin":              {Origin: "FAKE"},
		"reserved tag":            {Tags: []APITag{{TagKey: "aws:reserved", TagValue: "v"}}},
	}
	for name, input := range badInputs {
		t.Run(name, func(t *testing.T) {
			if _, err := k.CreateKey(input); err == nil {
				t.Fatal("Expected error")
			}
		})
	}
}

func TestReEncrypt(t *testing.T) {
	k, sourceKeyId := newKMSWithKey()
	destKeyId, _ := createKey(k, CreateKeyInput{})

	plaintext := []byte("The quick brown fox jumps over the lazy dog")
	encryptOutput, err := k.Encrypt(EncryptInput{
		KeyId:     sourceKeyId,
		Plaintext: plaintext,
	})
	if err != nil {
		t.Fatal(err)
	}

	reEncryptOutput, err := k.ReEncrypt(ReEncryptInput{
		CiphertextBlob:   encryptOutput.CiphertextBlob,
		SourceKeyId:      sourceKeyId,
		DestinationKeyId: destKeyId,
	})
	if err != nil {
		t.Fatal(err)
	}
	if reEncryptOutput.KeyId != destKeyId {
		t.Fatal(reEncryptOutput.KeyId)
	}

	decryptOutput, err := k.Decrypt(DecryptInput{
		CiphertextBlob: reEncryptOutput.CiphertextBlob,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(plaintext, decryptOutput.Plaintext) {
		t.Fatal(decryptOutput.Plaintext)
	}
	if decryptOutput.KeyId != destKeyId {
		t.Fatal(decryptOutput.KeyId)
	}
}

func TestTagging(t *testing.T) {
	k, keyId := newKMSWithKey()

	_, err := k.TagResource(TagResourceInput{
		KeyId: keyId,
		Tags:  []APITag{{TagKey: "team", TagValue: "infra"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	output, err := k.ListResourceTags(ListResourceTagsInput{KeyId: keyId})
	if err != nil {
		t.Fatal(err)
	}
	if len(output.Tags) != 1 || output.Tags[0].TagKey != "team" {
		t.Fatal(output.Tags)
	}

	_, err = k.UntagResource(UntagResourceInput{
		KeyId:   keyId,
		TagKeys: []string{"team"},
	})
	if err != nil {
		t.Fatal(err)
	}

	output, err = k.ListResourceTags(ListResourceTagsInput{KeyId: keyId})
	if err != nil {
		t.Fatal(err)
	}
	if len(output.Tags) != 0 {
		t.Fatal(output.Tags)
	}
}
