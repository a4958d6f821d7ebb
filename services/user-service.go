package services

import (
	"context"
	"fmt"
	"html"
	"time"

	"task-management-service/logging"
	"task-management-service/models"
	"task-management-service/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type UserService struct {
	UserCollection *mongo.Collection
	BlackList      map[string]bool
}

func NewUserService(userCollection *mongo.Collection, blackList map[string]bool) *UserService {
	return &UserService{
		UserCollection: userCollection,
		BlackList:      blackList,
	}
}

// RegisterUser creates a new account with the default role. Every new user
// starts as a plain user; only an admin can promote them afterwards.
func (s *UserService) RegisterUser(ctx context.Context, name, email, password, passwordConfirmation string) (models.User, error) {
	if name == "" || email == "" {
		return models.User{}, fmt.Errorf("%w: name and email are required", ErrValidation)
	}

	if password != passwordConfirmation {
		return models.User{}, fmt.Errorf("%w: password confirmation does not match", ErrValidation)
	}

	if err := utils.ValidatePassword(password, s.BlackList); err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var existing models.User
	if err := s.UserCollection.FindOne(ctx, bson.M{"email": email}).Decode(&existing); err == nil {
		return models.User{}, fmt.Errorf("%w: user with email already exists", ErrValidation)
	}

	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}

	now := time.Now()
	user := models.User{
		ID:        primitive.NewObjectID(),
		Name:      html.EscapeString(name),
		Email:     html.EscapeString(email),
		Password:  hashedPassword,
		Role:      models.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := s.UserCollection.InsertOne(ctx, user); err != nil {
		return models.User{}, fmt.Errorf("failed to save user: %v", err)
	}

	logging.Logger.Infof("Event ID: USER_REGISTERED, Description: Registered user %s", user.ID.Hex())
	return user, nil
}

// LoginUser verifies credentials and issues a token carrying id and role.
func (s *UserService) LoginUser(ctx context.Context, email, password string) (models.User, string, error) {
	var user models.User
	err := s.UserCollection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		return models.User{}, "", fmt.Errorf("%w: the provided credentials are incorrect", ErrValidation)
	}

	if !utils.CheckPassword(user.Password, password) {
		return models.User{}, "", fmt.Errorf("%w: the provided credentials are incorrect", ErrValidation)
	}

	token, err := utils.GenerateToken(user.ID.Hex(), string(user.Role))
	if err != nil {
		return models.User{}, "", fmt.Errorf("failed to generate token: %v", err)
	}

	return user, token, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var user models.User
	err := s.UserCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: user not found", ErrNotFound)
	}
	return user, nil
}

func (s *UserService) GetAllUsers(ctx context.Context) ([]models.User, error) {
	cursor, err := s.UserCollection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %v", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to parse users: %v", err)
	}

	return users, nil
}

// UpdateProfile lets the principal change their own name and/or password.
func (s *UserService) UpdateProfile(ctx context.Context, principal models.Principal, name, password, passwordConfirmation string) (models.User, error) {
	update := bson.M{"updatedAt": time.Now()}

	if name != "" {
		update["name"] = html.EscapeString(name)
	}

	if password != "" {
		if password != passwordConfirmation {
			return models.User{}, fmt.Errorf("%w: password confirmation does not match", ErrValidation)
		}
		if err := utils.ValidatePassword(password, s.BlackList); err != nil {
			return models.User{}, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		hashed, err := utils.HashPassword(password)
		if err != nil {
			return models.User{}, err
		}
		update["password"] = hashed
	}

	result, err := s.UserCollection.UpdateOne(ctx, bson.M{"_id": principal.ID}, bson.M{"$set": update})
	if err != nil {
		return models.User{}, fmt.Errorf("failed to update user: %v", err)
	}
	if result.MatchedCount == 0 {
		return models.User{}, fmt.Errorf("%w: user not found", ErrNotFound)
	}

	return s.GetUserByID(ctx, principal.ID)
}

// validateRoleChange applies the role reassignment guards: only an admin may
// reassign roles, never their own and never another admin's.
func validateRoleChange(actor models.Principal, target models.User, newRole models.Role, roleKnown bool) error {
	if actor.Role != models.RoleAdmin {
		return fmt.Errorf("%w: only admins may change roles", ErrForbidden)
	}
	if !roleKnown {
		return fmt.Errorf("%w: unknown role", ErrValidation)
	}
	if actor.ID == target.ID {
		return fmt.Errorf("%w: admins cannot change their own role", ErrForbidden)
	}
	if target.Role == models.RoleAdmin {
		return fmt.Errorf("%w: admins cannot change another admin's role", ErrForbidden)
	}
	return nil
}

// ChangeUserRole replaces the target's role. A user holds exactly one role,
// so assignment is a full replace rather than an additive grant.
func (s *UserService) ChangeUserRole(ctx context.Context, actor models.Principal, targetID primitive.ObjectID, roleName string) (models.User, error) {
	target, err := s.GetUserByID(ctx, targetID)
	if err != nil {
		return models.User{}, err
	}

	newRole, ok := models.ParseRole(roleName)
	if err := validateRoleChange(actor, target, newRole, ok); err != nil {
		return models.User{}, err
	}

	_, err = s.UserCollection.UpdateOne(ctx,
		bson.M{"_id": targetID},
		bson.M{"$set": bson.M{"role": newRole, "updatedAt": time.Now()}},
	)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to update role: %v", err)
	}

	logging.Logger.Infof("Event ID: ROLE_CHANGED, Description: Admin %s changed role of user %s to %s", actor.ID.Hex(), targetID.Hex(), newRole)

	target.Role = newRole
	return target, nil
}
