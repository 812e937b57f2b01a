package kms

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"golang.org/x/exp/maps"

	"keybox/arn"
	"keybox/awserrors"
	"keybox/digest"
	"keybox/pkey"
	"keybox/random"
	"keybox/services/kms/key"
)

type KeyId = string

type KMS struct {
	logger       *slog.Logger
	arnGenerator arn.Generator
	persistDir   string

	mu sync.Mutex

	// The keys here do not include the "alias/" prefix
	aliases map[string]KeyId
	keys    map[KeyId]*key.Key
}

type Options struct {
	Logger       *slog.Logger
	ArnGenerator arn.Generator
	PersistDir   string
}

func New(options Options) (*KMS, error) {
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	keys := make(map[KeyId]*key.Key)

	if options.PersistDir != "" {
		options.PersistDir = filepath.Join(options.PersistDir, "kms")
		err := os.MkdirAll(options.PersistDir, 0700)
		if err != nil {
			return nil, err
		}

		files, err := os.ReadDir(options.PersistDir)
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			name := file.Name()
			fullPath := filepath.Join(options.PersistDir, name)
			if strings.HasSuffix(name, ".tmp") {
				os.Remove(fullPath)
			} else if strings.HasSuffix(name, ".json") {
				key, err := key.NewFromFile(fullPath)
				if err != nil {
					return nil, err
				}
				keys[key.Id()] = key
			}
		}
	}

	return &KMS{
		logger:       options.Logger,
		arnGenerator: options.ArnGenerator,
		persistDir:   options.PersistDir,
		aliases:      make(map[string]KeyId),
		keys:         keys,
	}, nil
}

// https://docs.aws.amazon.com/kms/latest/APIReference/API_CreateKey.html
func (k *KMS) CreateKey(input CreateKeyInput) (*CreateKeyOutput, *awserrors.Error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	keyId := uuid.Must(uuid.NewV4()).String()

	for _, t := range input.Tags {
		if !isValidTagKey(t.TagKey) || !isValidTagValue(t.TagValue) {
			return nil, TagException("")
		}
	}

	keySpec := input.KeySpec
	if keySpec == "" {
		keySpec = input.CustomerMasterKeySpec
	}
	if keySpec == "" {
		keySpec = "SYMMETRIC_DEFAULT"
	}

	usage := key.Usage(input.KeyUsage)
	if usage == "" {
		if keySpec == "SYMMETRIC_DEFAULT" {
			usage = key.EncryptDecrypt
		} else {
			return nil, ValidationError("KeyUsage is required for asymmetric keys")
		}
	}

	persistPath := ""
	if k.persistDir != "" {
		persistPath = filepath.Join(k.persistDir, keyId+".json")
	}
	options := key.Options{
		PersistPath:  persistPath,
		CreationDate: time.Now(),
		Description:  input.Description,
		Id:           keyId,
		Tags:         fromAPITags(input.Tags),
		Usage:        usage,
	}

	switch input.Origin {
	case "", "AWS_KMS":
	case "EXTERNAL":
		if err := validSpecUsage(keySpec, usage); err != nil {
			return nil, err
		}
		pending, err := key.NewPending(options, keySpec)
		if err != nil {
			return nil, UnsupportedOperationException(err.Error())
		}
		k.keys[keyId] = pending
		return &CreateKeyOutput{KeyMetadata: k.apiMetadata(pending)}, nil
	default:
		return nil, UnsupportedOperationException("Bad Origin")
	}

	if err := validSpecUsage(keySpec, usage); err != nil {
		return nil, err
	}

	var newKey *key.Key
	var err error
	switch keySpec {
	case "SYMMETRIC_DEFAULT":
		newKey, err = key.NewAES(options)
	case "RSA_2048", "RSA_3072", "RSA_4096":
		bits, _ := strconv.Atoi(keySpec[4:])
		newKey, err = key.NewRSA(options, bits)
	case "ECC_NIST_P256":
		newKey, err = key.NewECC(options, elliptic.P256())
	case "ECC_NIST_P384":
		newKey, err = key.NewECC(options, elliptic.P384())
	case "ECC_NIST_P521":
		newKey, err = key.NewECC(options, elliptic.P521())
	}
	if err != nil {
		return nil, KMSInternalException(err.Error())
	}

	k.keys[keyId] = newKey
	return &CreateKeyOutput{KeyMetadata: k.apiMetadata(newKey)}, nil
}

func validSpecUsage(keySpec string, usage key.Usage) *awserrors.Error {
	switch keySpec {
	case "SYMMETRIC_DEFAULT":
		if usage != key.EncryptDecrypt {
			return InvalidKeyUsageException("Bad KeyUsage")
		}
	case "RSA_2048", "RSA_3072", "RSA_4096":
		if usage != key.EncryptDecrypt && usage != key.SignVerify {
			return InvalidKeyUsageException("Bad KeyUsage")
		}
	case "ECC_NIST_P256", "ECC_NIST_P384", "ECC_NIST_P521":
		if usage != key.SignVerify {
			return InvalidKeyUsageException("Bad KeyUsage")
		}
	default:
		// "HMAC_*", "ECC_SECG_P256K1", "SM2":
		return UnsupportedOperationException("")
	}
	return nil
}

func (k *KMS) apiMetadata(kk *key.Key) APIKeyMetadata {
	return APIKeyMetadata{
		AWSAccountId:          k.arnGenerator.AwsAccountId,
		Arn:                   k.arnGenerator.Generate("kms", "key", kk.Id()),
		CreationDate:          kk.CreationDate(),
		CustomerMasterKeySpec: kk.KeySpec(),
		DeletionDate:          kk.DeletionDate(),
		Description:           kk.Description(),
		Enabled:               kk.Enabled(),
		EncryptionAlgorithms:  encryptionAlgorithmStrings(kk.EncryptionAlgorithms()),
		KeyId:                 kk.Id(),
		KeySpec:               kk.KeySpec(),
		KeyState:              kk.KeyState(),
		KeyUsage:              string(kk.Usage()),
		Origin:                kk.Origin(),
		SigningAlgorithms:     signingAlgorithmStrings(kk.SigningAlgorithms()),
	}
}

func signingAlgorithmStrings(algs []key.SigningAlgorithm) []string {
	out := make([]string, len(algs))
	for i, alg := range algs {
		out[i] = string(alg)
	}
	return out
}

func encryptionAlgorithmStrings(algs []key.EncryptionAlgorithm) []string {
	out := make([]string, len(algs))
	for i, alg := range algs {
		out[i] = string(alg)
	}
	return out
}

func (k *KMS) lockedGetKey(keyId string) *key.Key {
	// There are 4 possible ways to specify a key:
	// - Key ID: 1234abcd-12ab-34cd-56ef-1234567890ab
	// - Key ARN: arn:aws:kms:us-east-2:111122223333:key/1234abcd-12ab-34cd-56ef-1234567890ab
	// - Alias name: alias/ExampleAlias
	// - Alias ARN: arn:aws:kms:us-east-2:111122223333:alias/ExampleAlias

	var isAlias bool
	if strings.HasPrefix(keyId, "arn:") {
		var resourceType string
		resourceType, keyId = arn.ExtractId(keyId)
		isAlias = resourceType == "alias"
	} else if strings.HasPrefix(keyId, "alias/") {
		_, keyId, isAlias = strings.Cut(keyId, "alias/")
	}

	if isAlias {
		var ok bool
		keyId, ok = k.aliases[keyId]
		if !ok {
			return nil
		}
	}

	return k.keys[keyId]
}

// keyUsableError reports why cryptographic operations on the key must be
// refused, or nil if they may proceed.
func keyUsableError(kk *key.Key) *awserrors.Error {
	switch state := kk.KeyState(); state {
	case "Enabled":
		return nil
	case "Disabled":
		return DisabledException("")
	default:
		return KMSInvalidStateException(state)
	}
}

var aliasNameRe = regexp.MustCompile("^[a-zA-Z0-9/_-]+$")

func validateAliasName(aliasName string) *awserrors.Error {
	if !strings.HasPrefix(aliasName, "alias/") {
		return InvalidAliasNameException("")
	}

	if strings.HasPrefix(aliasName, "alias/aws/") {
		return InvalidAliasNameException("")
	}

	if len(aliasName) > 256 {
		return InvalidAliasNameException("")
	}

	if !aliasNameRe.MatchString(aliasName) {
		return InvalidAliasNameException("")
	}

	return nil
}

// https://docs.aws.amazon.com/kms/latest/APIReference/API_CreateAlias.html
func (k *KMS) CreateAlias(input CreateAliasInput) (*CreateAliasOutput, *awserrors.Error) {
	if err := validateAliasName(input.AliasName); err != nil {
		return nil, err
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	key := k.lockedGetKey(input.TargetKeyId)
	if key == nil {
		return nil, NotFoundException("")
	}

	aliasName := strings.TrimPrefix(input.AliasName, "alias/")
	if _, ok := k.aliases[aliasName]; ok {
		return nil, AlreadyExistsException("")
	}

	k.aliases[aliasName] = key.Id()
	return nil, nil
}

// https://docs.aws.amazon.com/kms/latest/APIReference/API_UpdateAlias.html
func (k *KMS) UpdateAlias(input UpdateAliasInput) (*UpdateAliasOutput, *awserrors.Error) {
	if err := validateAliasName(input.AliasName); err != nil {
		return nil, err
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	aliasName := strings.TrimPrefix(input.AliasName, "alias/")
	if _, ok := k.aliases[aliasName]; !ok {
		return nil, NotFoundException("")
	}

	key := k.lockedGetKey(input.TargetKeyId)
	if key == nil {
		return nil, NotFoundException("")
	}

	k.aliases[aliasName] = key.Id()
	return nil, nil
}

// https://docs.aws.amazon.com/kms/latest/APIReference/API_DeleteAlias.html
func (k *KMS) DeleteAlias(input DeleteAliasInput) (*DeleteAliasOutput, *awserrors.Error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	aliasName := strings.TrimPrefix(input.AliasName, "alias/")
	if _, ok := k.aliases[aliasName]; !ok {
		return nil, NotFoundException("")
	}

	delete(k.aliases, aliasName)
	return nil, nil
}

// https://docs.aws.amazon.com/kms/latest/APIReference/API_ListAliases.html
func (k *KMS) ListAliases(input ListAliasesInput) (*ListAliasesOutput, *awserrors.Error) {
	output := &ListAliasesOutput{}

	k.mu.Lock()
	defer k.mu.Unlock()

	names := maps.Keys(k.aliases)
	sort.Strings(names)
	for _, alias := range names {
		target := k.aliases[alias]
		if input.KeyId == "" || input.KeyId == target {
			output.Aliases = append(output.Aliases, APIAliasListEntry{
				AliasName:   "alias/" + alias,
				AliasArn:    k.arnGenerator.Generate("kms", "alias", alias),
				TargetKeyId: target,
			})
		}
	}

	return output, nil
}

// digestState builds the digest the signing key will consume: a fresh
// accumulator over the message for RAW, or a seeded state when the caller
// already hashed (DIGEST).
func digestState(algorithm key.SigningAlgorithm, messageType string, message []byte) (*digest.State, *awserrors.Error) {
	alg, err := key.DigestAlgFor(algorithm)
	if err != nil {
		return nil, UnsupportedOperationException("Unsupported SigningAlgorithm")
	}

	switch messageType {
	case "", "RAW":
		if len(message) == 0 || len(message) > 4096 {
			return nil, ValidationError("Bad Message length")
		}
		st, err := digest.New(alg)
		if err != nil {
			return nil, KMSInternalException(err.Error())
		}
		if err := st.Update(message); err != nil {
			return nil, KMSInternalException(err.Error())
		}
		return st, nil
	case "DIGEST":
		st, err := digest.FromSum(alg, message)
		if err != nil {
			return nil, ValidationError(err.Error())
		}
		return st, nil
	default:
		return nil, ValidationError("Bad MessageType")
	}
}

// https://docs.aws.amazon.com/kms/latest/APIReference/API_Sign.html
func (k *KMS) Sign(input SignInput) (*SignOutput, *awserrors.Error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	signingKey := k.lockedGetKey(input.KeyId)
	if signingKey == nil {
		return nil, NotFoundException("")
	}
	if err := keyUsableError(signingKey); err != nil {
		return nil, err
	}
	if signingKey.Usage() != key.SignVerify {
		return nil, InvalidKeyUsageException("")
	}

	algorithm := key.SigningAlgorithm(input.SigningAlgorithm)
	st, awserr := digestState(algorithm, input.MessageType, input.Message)
	if awserr != nil {
		return nil, awserr
	}

	signature, err := signingKey.Sign(st, algorithm)
	if err != nil {
		if errors.Is(err, key.ErrBadAlgorithm) {
			return nil, UnsupportedOperationException("Unsupported SigningAlgorithm")
		}
		return nil, KMSInternalException(err.Error())
	}

	return &SignOutput{
		KeyId:            signingKey.Id(),
		Signature:        signature,
		SigningAlgorithm: input.SigningAlgorithm,
	}, nil
}

// https://docs.aws.amazon.com/kms/latest/APIReference/API_Verify.html
func (k *KMS) Verify(input VerifyInput) (*VerifyOutput, *awserrors.Error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	signingKey := k.lockedGetKey(input.KeyId)
	if signingKey == nil {
		return nil, NotFoundException("")
	}
	if err := keyUsableError(signingKey); err != nil {
		return nil, err
	}
	if signingKey.Usage() != key.SignVerify {
		return nil, InvalidKeyUsageException("")
	}

	algorithm := key.SigningAlgorithm(input.SigningAlgorithm)
	st, awserr := digestState(algorithm, input.MessageType, input.Message)
	if awserr != nil {
		return nil, awserr
	}

	valid := true
	err := signingKey.Verify(st, input.Signature, algorithm)
	if err != nil {
		switch {
		case errors.Is(err, key.ErrBadAlgorithm):
			return nil, UnsupportedOperationException("Unsupported SigningAlgorithm")
		case pkey.KindOf(err) == pkey.KindVerifySignature:
			valid = false
		default:
			return nil, KMSInternalException(err.Error())
		}
	}

	return &VerifyOutput{
		KeyId:            signingKey.Id(),
		SignatureValid:   valid,
		SigningAlgorithm: input.SigningAlgorithm,
	}, nil
}

// https://docs.aws.amazon.com/kms/latest/APIReference/API_GetPublicKey.html
func (k *KMS) GetPublicKey(input GetPublicKeyInput) (*GetPublicKeyOutput, *awserrors.Error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	kk := k.lockedGetKey(input.KeyId)
	if kk == nil {
		return nil, NotFoundException("")
	}
	if err := keyUsableError(kk); err != nil {
		return nil, err
	}
	if !kk.IsAsymmetric() {
		return nil, UnsupportedOperationException("Not an asymmetric key")
	}

	der, err := kk.PublicKeyDER()
	if err != nil {
		return nil, KMSInternalException(err.Error())
	}

	return &GetPublicKeyOutput{
		CustomerMasterKeySpec: kk.KeySpec(),
		EncryptionAlgorithms:  encryptionAlgorithmStrings(kk.EncryptionAlgorithms()),
		KeyId:                 k.arnGenerator.Generate("kms", "key", kk.Id()),
		KeySpec:               kk.KeySpec(),
		KeyUsage:              string(kk.Usage()),
		PublicKey:             der,
		SigningAlgorithms:     signingAlgorithmStrings(kk.SigningAlgorithms()),
	}, nil
}

// https://docs.aws.amazon.com/kms/latest/APIReference/API_GenerateDataKey.html
func (k *KMS) GenerateDataKey(input GenerateDataKeyInput) (*GenerateDataKeyOutput, *awserrors.Error) {
	numberOfBytes := input.NumberOfBytes
	if numberOfBytes < 0 || numberOfBytes > 1024 {
		return nil, ValidationError("Invalid number of bytes value")
	}
	if numberOfBytes == 0 {
		switch input.KeySpec {
		case "AES_256":
			numberOfBytes = 32
		case "AES_128":
			numberOfBytes = 16
		case "":
			return nil, InvalidParameterCombination("Must specify either KeySpec or NumberOfBytes")
		default:
			return nil, ValidationError("Invalid value for KeySpec")
		}
	}

	dataKey := make([]byte, numberOfBytes)
	if err := random.Data(dataKey); err != nil {
		return nil, KMSInternalException(err.Error())
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	kk := k.lockedGetKey(input.KeyId)
	if kk == nil {
		return nil, NotFoundException("")
	}
	if err := keyUsableError(kk); err != nil {
		return nil, err
	}
	if !kk.IsSymmetric() {
		return nil, UnsupportedOperationException("Data keys require a symmetric key")
	}

	encryptedDataKey, err := kk.Encrypt(dataKey, key.SymmetricDefault, input.EncryptionContext)
	if err != nil {
		return nil, KMSInternalException(err.Error())
	}

	return &GenerateDataKeyOutput{
		KeyId:          kk.Id(),
		Plaintext:      dataKey,
		CiphertextBlob: encryptedDataKey,
	}, nil
}

// https://docs.aws.amazon.com/kms/latest/APIReference/API_GenerateDataKeyWithoutPlaintext.html
func (k *KMS) GenerateDataKeyWithoutPlaintext(
	input GenerateDataKeyWithoutPlaintextInput,
) (*GenerateDataKeyWithoutPlaintextOutput, *awserrors.Error) {
	output, err := k.GenerateDataKey(input)
	if err != nil {
		return nil, err
	}

	return &GenerateDataKeyWithoutPlaintextOutput{
		CiphertextBlob: output.CiphertextBlob,
		KeyId:          output.KeyId,
	}, nil
}

func generateDataKeyPair(keyPairSpec string) (crypto.Signer, *awserrors.Error) {
	switch keyPairSpec {
	case "RSA_2048", "RSA_3072", "RSA_4096":
		bits, _ := strconv.Atoi(keyPairSpec[4:])
		pair, err := rsa.GenerateKey(rand.Reader, bits)
		if err != nil {
			return nil, KMSInternalException(err.Error())
		}
		return pair, nil
	case "ECC_NIST_P256", "ECC_NIST_P384", "ECC_NIST_P521":
		var curve elliptic.Curve
		switch keyPairSpec {
		case "ECC_NIST_P256":
			curve = elliptic.P256()
		case "ECC_NIST_P384":
			curve = elliptic.P384()
		case "ECC_NIST_P521":
			curve = elliptic.P521()
		}
		pair, err := ecdsa.GenerateKey(curve, rand.Reader)
		if err != nil {
			return nil, KMSInternalException(err.Error())
		}
		return pair, nil
	default:
		return nil, UnsupportedOperationException("Bad KeyPairSpec")
	}
}

// https://docs.aws.amazon.com/kms/latest/APIReference/API_GenerateDataKeyPair.html
func (k *KMS) GenerateDataKeyPair(input GenerateDataKeyPairInput) (*GenerateDataKeyPairOutput, *awserrors.Error) {
	pair, awserr := generateDataKeyPair(input.KeyPairSpec)
	if awserr != nil {
		return nil, awserr
	}

	privateDER, err := x509.MarshalPKCS8PrivateKey(pair)
	if err != nil {
		return nil, KMSInternalException(err.Error())
	}
	publicDER, err := x509.MarshalPKIXPublicKey(pair.Public())
	if err != nil {
		return nil, KMSInternalException(err.Error())
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	kk := k.lockedGetKey(input.KeyId)
	if kk == nil {
		return nil, NotFoundException("")
	}
	if err := keyUsableError(kk); err != nil {
		return nil, err
	}
	if !kk.IsSymmetric() {
		return nil, UnsupportedOperationException("Data key pairs require a symmetric wrapping key")
	}

	encryptedPrivate, err := kk.Encrypt(privateDER, key.SymmetricDefault, input.EncryptionContext)
	if err != nil {
		return nil, KMSInternalException(err.Error())
	}

	return &GenerateDataKeyPairOutput{
		KeyId:                    kk.Id(),
		KeyPairSpec:              input.KeyPairSpec,
		PrivateKeyCiphertextBlob: encryptedPrivate,
		PrivateKeyPlaintext:      privateDER,
		PublicKey:                publicDER,
	}, nil
}

// https://docs.aws.amazon.com/kms/latest/APIReference/API_GenerateDataKeyPairWithoutPlaintext.html
func (k *KMS) GenerateDataKeyPairWithoutPlaintext(
	input GenerateDataKeyPairWithoutPlaintextInput,
) (*GenerateDataKeyPairWithoutPlaintextOutput, *awserrors.Error) {
	output, err := k.GenerateDataKeyPair(input)
	if err != nil {
		return nil, err
	}

	return &GenerateDataKeyPairWithoutPlaintextOutput{
		KeyId:                    output.KeyId,
		KeyPairSpec:              output.KeyPairSpec,
		PrivateKeyCiphertextBlob: output.PrivateKeyCiphertextBlob,
		PublicKey:                output.PublicKey,
	}, nil
}

// https://docs.aws.amazon.com/kms/latest/APIReference/API_GenerateRandom.html
func (k *KMS) GenerateRandom(input GenerateRandomInput) (*GenerateRandomOutput, *awserrors.Error) {
	if input.NumberOfBytes < 0 || input.NumberOfBytes > 1024 {
		return nil, ValidationError("Invalid NumberOfBytes")
	}

	data := make([]byte, input.NumberOfBytes)
	if err := random.Data(data); err != nil {
		return nil, KMSInternalException(err.Error())
	}

	return &GenerateRandomOutput{
		Plaintext: data,
	}, nil
}

// https://docs.aws.amazon.com/kms/latest/APIReference/API_Encrypt.html
func (k *KMS) Encrypt(input EncryptInput) (*EncryptOutput, *awserrors.Error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if len(input.Plaintext) == 0 || len(input.Plaintext) > 4096 {
		return nil, ValidationError("Bad Plaintext length")
	}

	if input.EncryptionAlgorithm == "" {
		input.EncryptionAlgorithm = "SYMMETRIC_DEFAULT"
	}

	kk := k.lockedGetKey(input.KeyId)
	if kk == nil {
		return nil, NotFoundException("")
	}
	if err := keyUsableError(kk); err != nil {
		return nil, err
	}

	ciphertext, err := kk.Encrypt(input.Plaintext, key.EncryptionAlgorithm(input.EncryptionAlgorithm), input.EncryptionContext)
	if err != nil {
		if errors.Is(err, key.ErrBadAlgorithm) {
			return nil, InvalidKeyUsageException("Unsupported EncryptionAlgorithm")
		}
		return nil, KMSInternalException(err.Error())
	}

	return &EncryptOutput{
		CiphertextBlob:      ciphertext,
		EncryptionAlgorithm: input.EncryptionAlgorithm,
		KeyId:               kk.Id(),
	}, nil
}

// https://docs.aws.amazon.com/kms/latest/APIReference/API_Decrypt.html
func (k *KMS) Decrypt(input DecryptInput) (*DecryptOutput, *awserrors.Error) {
	if input.EncryptionAlgorithm == "" {
		input.EncryptionAlgorithm = "SYMMETRIC_DEFAULT"
	}

	data := input.CiphertextBlob
	if len(data) == 0 {
		return nil, InvalidCiphertextException("")
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	var kk *key.Key
	if input.KeyId != "" {
		kk = k.lockedGetKey(input.KeyId)
		if kk == nil {
			return nil, NotFoundException("")
		}
	}

	// Symmetric ciphertexts are self-describing (opposite of Key.Encrypt);
	// asymmetric ciphertexts are raw and the caller must name the key.
	if kk == nil || kk.IsSymmetric() {
		idLen := int(data[0])
		if len(data) < 1+idLen+4 {
			return nil, InvalidCiphertextException("")
		}
		embeddedId := string(data[1 : 1+idLen])
		data = data[1+idLen:]
		if kk == nil {
			kk = k.lockedGetKey(embeddedId)
			if kk == nil {
				return nil, NotFoundException("")
			}
		}
	}

	if err := keyUsableError(kk); err != nil {
		return nil, err
	}

	plaintext, err := kk.Decrypt(data, key.EncryptionAlgorithm(input.EncryptionAlgorithm), input.EncryptionContext)
	if err != nil {
		if errors.Is(err, key.ErrBadAlgorithm) {
			return nil, InvalidKeyUsageException("Unsupported EncryptionAlgorithm")
		}
		return nil, InvalidCiphertextException("")
	}

	return &DecryptOutput{
		Plaintext:           plaintext,
		EncryptionAlgorithm: input.EncryptionAlgorithm,
		KeyId:               kk.Id(),
	}, nil
}

// https://docs.aws.amazon.com/kms/latest/APIReference/API_ReEncrypt.html
func (k *KMS) ReEncrypt(input ReEncryptInput) (*ReEncryptOutput, *awserrors.Error) {
	decryptOutput, err := k.Decrypt(DecryptInput{
		CiphertextBlob:      input.CiphertextBlob,
		EncryptionAlgorithm: input.SourceEncryptionAlgorithm,
		EncryptionContext:   input.SourceEncryptionContext,
		KeyId:               input.SourceKeyId,
	})
	if err != nil {
		return nil, err
	}
	encryptOutput, err := k.Encrypt(EncryptInput{
		EncryptionAlgorithm: input.DestinationEncryptionAlgorithm,
		EncryptionContext:   input.DestinationEncryptionContext,
		KeyId:               input.DestinationKeyId,
		Plaintext:           decryptOutput.Plaintext,
	})
	if err != nil {
		return nil, err
	}

	return &ReEncryptOutput{
		CiphertextBlob:                 encryptOutput.CiphertextBlob,
		DestinationEncryptionAlgorithm: encryptOutput.EncryptionAlgorithm,
		KeyId:                          encryptOutput.KeyId,
		SourceEncryptionAlgorithm:      decryptOutput.EncryptionAlgorithm,
		SourceKeyId:                    decryptOutput.KeyId,
	}, nil
}

// https://docs.aws.amazon.com/kms/latest/APIReference/API_DescribeKey.html
func (k *KMS) DescribeKey(input DescribeKeyInput) (*DescribeKeyOutput, *awserrors.Error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	kk := k.lockedGetKey(input.KeyId)
	if kk == nil {
		return nil, NotFoundException("")
	}

	return &DescribeKeyOutput{KeyMetadata: k.apiMetadata(kk)}, nil
}

// https://docs.aws.amazon.com/kms/latest/APIReference/API_ImportKeyMaterial.html
//
// Simplified: the material arrives as plain PKCS#8 (or 32 raw bytes for
// symmetric keys) rather than wrapped under an import token.
func (k *KMS) ImportKeyMaterial(input ImportKeyMaterialInput) (*ImportKeyMaterialOutput, *awserrors.Error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	kk := k.lockedGetKey(input.KeyId)
	if kk == nil {
		return nil, NotFoundException("")
	}
	if kk.Origin() != "EXTERNAL" {
		return nil, UnsupportedOperationException("Key material can only be imported into EXTERNAL keys")
	}
	if kk.HasMaterial() {
		return nil, KMSInvalidStateException("Key already has material")
	}

	if err := kk.ImportMaterial(input.EncryptedKeyMaterial); err != nil {
		return nil, IncorrectKeyMaterialException(err.Error())
	}

	return &ImportKeyMaterialOutput{}, nil
}

// https://docs.aws.amazon.com/kms/latest/APIReference/API_ScheduleKeyDeletion.html
func (k *KMS) ScheduleKeyDeletion(input ScheduleKeyDeletionInput) (*ScheduleKeyDeletionOutput, *awserrors.Error) {
	window := input.PendingWindowInDays
	if window == 0 {
		window = 30
	}
	if window < 7 || window > 30 {
		return nil, ValidationError("PendingWindowInDays must be between 7 and 30")
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	kk := k.lockedGetKey(input.KeyId)
	if kk == nil {
		return nil, NotFoundException("")
	}
	if kk.PendingDeletion() {
		return nil, KMSInvalidStateException("Key deletion is already scheduled")
	}

	at := time.Now().AddDate(0, 0, window)
	if err := kk.ScheduleDeletion(at); err != nil {
		return nil, KMSInternalException(err.Error())
	}

	return &ScheduleKeyDeletionOutput{
		DeletionDate:        kk.DeletionDate(),
		KeyId:               kk.Id(),
		KeyState:            kk.KeyState(),
		PendingWindowInDays: window,
	}, nil
}

// https://docs.aws.amazon.com/kms/latest/APIReference/API_CancelKeyDeletion.html
func (k *KMS) CancelKeyDeletion(input CancelKeyDeletionInput) (*CancelKeyDeletionOutput, *awserrors.Error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	kk := k.lockedGetKey(input.KeyId)
	if kk == nil {
		return nil, NotFoundException("")
	}
	if !kk.PendingDeletion() {
		return nil, KMSInvalidStateException("Key deletion is not scheduled")
	}

	if err := kk.CancelDeletion(); err != nil {
		return nil, KMSInternalException(err.Error())
	}

	return &CancelKeyDeletionOutput{KeyId: kk.Id()}, nil
}

// https://docs.aws.amazon.com/kms/latest/APIReference/API_DisableKey.html
func (k *KMS) DisableKey(input DisableKeyInput) (*DisableKeyOutput, *awserrors.Error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	kk := k.lockedGetKey(input.KeyId)
	if kk == nil {
		return nil, NotFoundException("")
	}

	err := kk.SetEnabled(false)
	if err != nil {
		return nil, KMSInternalException(err.Error())
	}
	return nil, nil
}

// https://docs.aws.amazon.com/kms/latest/APIReference/API_EnableKey.html
func (k *KMS) EnableKey(input EnableKeyInput) (*EnableKeyOutput, *awserrors.Error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	kk := k.lockedGetKey(input.KeyId)
	if kk == nil {
		return nil, NotFoundException("")
	}
	if kk.PendingDeletion() || !kk.HasMaterial() {
		return nil, KMSInvalidStateException(kk.KeyState())
	}

	err := kk.SetEnabled(true)
	if err != nil {
		return nil, KMSInternalException(err.Error())
	}
	return nil, nil
}

// https://docs.aws.amazon.com/kms/latest/APIReference/API_UpdateKeyDescription.html
func (k *KMS) UpdateKeyDescription(input UpdateKeyDescriptionInput) (*UpdateKeyDescriptionOutput, *awserrors.Error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	kk := k.lockedGetKey(input.KeyId)
	if kk == nil {
		return nil, NotFoundException("")
	}

	err := kk.SetDescription(input.Description)
	if err != nil {
		return nil, KMSInternalException(err.Error())
	}
	return nil, nil
}

// https://docs.aws.amazon.com/kms/latest/APIReference/API_TagResource.html
func (k *KMS) TagResource(input TagResourceInput) (*TagResourceOutput, *awserrors.Error) {
	if strings.HasPrefix(input.KeyId, "alias/") {
		return nil, ValidationError("Cannot tag alias")
	}

	for _, t := range input.Tags {
		if !isValidTagKey(t.TagKey) || !isValidTagValue(t.TagValue) {
			return nil, TagException("")
		}
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	kk := k.lockedGetKey(input.KeyId)
	if kk == nil {
		return nil, NotFoundException("")
	}

	err := kk.SetTags(fromAPITags(input.Tags))
	if err != nil {
		return nil, KMSInternalException(err.Error())
	}
	return nil, nil
}

func fromAPITags(apiTags []APITag) map[string]string {
	tags := make(map[string]string, len(apiTags))
	for _, t := range apiTags {
		tags[t.TagKey] = t.TagValue
	}
	return tags
}

// https://docs.aws.amazon.com/kms/latest/APIReference/API_UntagResource.html
func (k *KMS) UntagResource(input UntagResourceInput) (*UntagResourceOutput, *awserrors.Error) {
	if strings.HasPrefix(input.KeyId, "alias/") {
		return nil, ValidationError("Cannot tag alias")
	}

	for _, tagKey := range input.TagKeys {
		if !isValidTagKey(tagKey) {
			return nil, TagException("")
		}
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	kk := k.lockedGetKey(input.KeyId)
	if kk == nil {
		return nil, NotFoundException("")
	}

	err := kk.DeleteTags(input.TagKeys)
	if err != nil {
		return nil, KMSInternalException(err.Error())
	}
	return nil, nil
}

// https://docs.aws.amazon.com/kms/latest/APIReference/API_ListResourceTags.html
func (k *KMS) ListResourceTags(input ListResourceTagsInput) (*ListResourceTagsOutput, *awserrors.Error) {
	if strings.HasPrefix(input.KeyId, "alias/") {
		return nil, ValidationError("Cannot tag alias")
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	kk := k.lockedGetKey(input.KeyId)
	if kk == nil {
		return nil, NotFoundException("")
	}

	output := &ListResourceTagsOutput{}
	for tagKey, tagValue := range kk.Tags() {
		output.Tags = append(output.Tags, APITag{
			TagKey:   tagKey,
			TagValue: tagValue,
		})
	}

	return output, nil
}

// https://docs.aws.amazon.com/kms/latest/APIReference/API_ListKeys.html
func (k *KMS) ListKeys(input ListKeysInput) (*ListKeysOutput, *awserrors.Error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	output := &ListKeysOutput{}
	for _, kk := range k.keys {
		output.Keys = append(output.Keys, APIKey{
			KeyId:  kk.Id(),
			KeyArn: k.arnGenerator.Generate("kms", "key", kk.Id()),
		})
	}

	return output, nil
}

func isValidTagKey(tagKey string) bool {
	if strings.HasPrefix(tagKey, "aws:") {
		return false
	}

	if len(tagKey) == 0 || len(tagKey) > 128 {
		return false
	}

	return true
}

func isValidTagValue(tagValue string) bool {
	if len(tagValue) == 0 || len(tagValue) > 256 {
		return false
	}

	return true
}
