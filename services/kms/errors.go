package kms

import "keybox/awserrors"

func InvalidAliasNameException(message string) *awserrors.Error {
	return awserrors.Generate400Exception("InvalidAliasNameException", message)
}

func AlreadyExistsException(message string) *awserrors.Error {
	return awserrors.Generate400Exception("AlreadyExistsException", message)
}

func DisabledException(message string) *awserrors.Error {
	return awserrors.Generate400Exception("DisabledException", message)
}

func IncorrectKeyMaterialException(message string) *awserrors.Error {
	return awserrors.Generate400Exception("IncorrectKeyMaterialException", message)
}

func InvalidCiphertextException(message string) *awserrors.Error {
	return awserrors.Generate400Exception("InvalidCiphertextException", message)
}

func InvalidKeyUsageException(message string) *awserrors.Error {
	return awserrors.Generate400Exception("InvalidKeyUsageException", message)
}

func InvalidParameterCombination(message string) *awserrors.Error {
	return awserrors.Generate400Exception("InvalidParameterCombination", message)
}

func KMSInternalException(message string) *awserrors.Error {
	return awserrors.Generate500Exception("KMSInternalException", message)
}

func KMSInvalidStateException(message string) *awserrors.Error {
	return awserrors.Generate400Exception("KMSInvalidStateException", message)
}

func NotFoundException(message string) *awserrors.Error {
	return awserrors.Generate400Exception("NotFoundException", message)
}

func TagException(message string) *awserrors.Error {
	return awserrors.Generate400Exception("TagException", message)
}

func UnsupportedOperationException(message string) *awserrors.Error {
	return awserrors.Generate400Exception("UnsupportedOperationException", message)
}

func ValidationError(message string) *awserrors.Error {
	return awserrors.Generate400Exception("ValidationError", message)
}
