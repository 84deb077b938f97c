package auth

// Identity is the caller established from a verified bearer credential.
type Identity struct {
	ID   string
	Role Role
}

func (i Identity) IsOrganizer() bool {
	return i.Role == RoleOrganizer
}

// Verifier turns an Authorization header into an Identity. It holds no state
// beyond the signing configuration and is safe for concurrent use.
type Verifier struct {
	manager *JWTManager
}

func NewVerifier(manager *JWTManager) *Verifier {
	return &Verifier{manager: manager}
}

func (v *Verifier) Verify(authHeader string) (Identity, error) {
	token, err := TokenFromHeader(authHeader)
	if err != nil {
		return Identity{}, err
	}
	if v == nil || v.manager == nil {
		return Identity{}, ErrInvalidCredential
	}
	claims, err := v.manager.Validate(token)
	if err != nil {
		return Identity{}, err
	}
	return Identity{ID: claims.Subject, Role: NormalizeRole(claims.Role)}, nil
}
