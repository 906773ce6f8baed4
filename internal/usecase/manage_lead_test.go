package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mahidhar9542/mortgage-app/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newManageUseCase(repo *MockLeadRepository, users *MockUserRepository, pub *MockPublisher) *ManageLeadUseCase {
	if pub == nil {
		pub = new(MockPublisher)
	}
	notifier := NewNotificationDispatcher(pub, nil, "admin@example.com", "https://admin.example.com")
	uc := NewManageLeadUseCase(repo, users, notifier, nil)
	uc.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	return uc
}

func TestAddNote(t *testing.T) {
	ctx := context.Background()
	id := uuid.New().String()
	actor := Actor{UserID: "officer-1", Role: entity.RoleLoanOfficer}

	t.Run("empty content", func(t *testing.T) {
		uc := newManageUseCase(new(MockLeadRepository), nil, nil)
		_, err := uc.AddNote(ctx, id, AddNoteInput{Content: "   "}, actor)

		var de *DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "content", de.Fields[0].Field)
	})

	t.Run("appends and touches last contacted", func(t *testing.T) {
		repo := new(MockLeadRepository)
		repo.On("FindByID", ctx, id).Return(&entity.Lead{ID: id}, nil)
		repo.On("AddNote", ctx, mock.MatchedBy(func(n *entity.Note) bool {
			return n.Content == "Called, left voicemail" && !n.IsInternal && *n.CreatedBy == "officer-1"
		})).Return(nil)
		repo.On("TouchLastContacted", ctx, id, time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)).Return(nil)

		isInternal := false
		note, err := newManageUseCase(repo, nil, nil).AddNote(ctx, id, AddNoteInput{Content: " Called, left voicemail ", IsInternal: &isInternal}, actor)

		require.NoError(t, err)
		assert.Equal(t, id, note.LeadID)
		repo.AssertExpectations(t)
	})
}

func TestUpdateStatusNotifiesApplicant(t *testing.T) {
	ctx := context.Background()
	id := uuid.New().String()
	repo := new(MockLeadRepository)
	pub := new(MockPublisher)

	repo.On("FindByID", ctx, id).Return(&entity.Lead{ID: id, FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", Status: entity.LeadStatusContacted}, nil)
	repo.On("UpdateStatus", ctx, id, entity.LeadStatusQualified).Return(nil)
	repo.On("AddNote", ctx, mock.MatchedBy(func(n *entity.Note) bool {
		return n.Content == "Status changed to qualified"
	})).Return(nil)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	lead, err := newManageUseCase(repo, nil, pub).UpdateStatus(ctx, id, "qualified", Actor{UserID: "u1"})

	require.NoError(t, err)
	assert.Equal(t, entity.LeadStatusQualified, lead.Status)
	require.Equal(t, []string{entity.TemplateStatusPreApproved}, templatesOf(pub))

	n := pub.Calls[0].Arguments.Get(1).(entity.Notification)
	assert.Equal(t, "jane@example.com", n.To)
	assert.Equal(t, "Your Mortgage Application: Pre-approved", n.Subject)
}

func TestUpdateStatusSameStatusIsNoop(t *testing.T) {
	ctx := context.Background()
	id := uuid.New().String()
	repo := new(MockLeadRepository)
	pub := new(MockPublisher)
	repo.On("FindByID", ctx, id).Return(&entity.Lead{ID: id, Status: entity.LeadStatusNew}, nil)

	_, err := newManageUseCase(repo, nil, pub).UpdateStatus(ctx, id, "new", Actor{})

	require.NoError(t, err)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	_, err := newManageUseCase(new(MockLeadRepository), nil, nil).UpdateStatus(context.Background(), uuid.New().String(), "won", Actor{})

	var de *DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, CodeValidation, de.Code)
}

func TestUpdateIgnoresProtectedFields(t *testing.T) {
	ctx := context.Background()
	id := uuid.New().String()
	repo := new(MockLeadRepository)

	repo.On("FindByID", ctx, id).Return(&entity.Lead{ID: id}, nil)
	repo.On("Update", ctx, id, mock.MatchedBy(func(p entity.LeadPatch) bool {
		return p.FirstName != nil && *p.FirstName == "Janet" && p.Email == nil
	})).Return(nil)

	_, err := newManageUseCase(repo, nil, nil).Update(ctx, id, UpdateLeadInput{
		FirstName:  strPtr(" Janet "),
		AssignedTo: strPtr("someone"),
		ID:         strPtr("other-id"),
	}, Actor{})

	require.NoError(t, err)
	repo.AssertNotCalled(t, "Assign", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestUpdateDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	id := uuid.New().String()
	repo := new(MockLeadRepository)

	repo.On("FindByID", ctx, id).Return(&entity.Lead{ID: id}, nil)
	repo.On("Update", ctx, id, mock.Anything).Return(entity.ErrDuplicateContact)

	_, err := newManageUseCase(repo, nil, nil).Update(ctx, id, UpdateLeadInput{Email: strPtr("taken@example.com")}, Actor{})

	var de *DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, CodeDuplicateLead, de.Code)
}

func TestUpdatePurposeAwayFromRefinanceClearsRefinanceData(t *testing.T) {
	ctx := context.Background()
	id := uuid.New().String()
	repo := new(MockLeadRepository)

	repo.On("FindByID", ctx, id).Return(&entity.Lead{
		ID:            id,
		LoanPurpose:   "refinance",
		RefinanceData: &entity.RefinanceData{CurrentBalance: 300000, CurrentRate: 7},
	}, nil)
	repo.On("Update", ctx, id, mock.MatchedBy(func(p entity.LeadPatch) bool {
		return p.LoanPurpose != nil && *p.LoanPurpose == "purchase" && p.ClearRefinanceData
	})).Return(nil).Once()

	_, err := newManageUseCase(repo, nil, nil).Update(ctx, id, UpdateLeadInput{LoanPurpose: strPtr("purchase")}, Actor{})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestUpdatePurposeStillRefinanceKeepsRefinanceData(t *testing.T) {
	ctx := context.Background()
	id := uuid.New().String()
	repo := new(MockLeadRepository)

	repo.On("FindByID", ctx, id).Return(&entity.Lead{
		ID:            id,
		LoanPurpose:   "refinance",
		RefinanceData: &entity.RefinanceData{CurrentBalance: 300000},
	}, nil)
	repo.On("Update", ctx, id, mock.MatchedBy(func(p entity.LeadPatch) bool {
		return !p.ClearRefinanceData
	})).Return(nil).Once()

	_, err := newManageUseCase(repo, nil, nil).Update(ctx, id, UpdateLeadInput{LoanPurpose: strPtr("refinance")}, Actor{})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestUpdateInvalidStatusWritesNothing(t *testing.T) {
	ctx := context.Background()
	id := uuid.New().String()
	repo := new(MockLeadRepository)

	repo.On("FindByID", ctx, id).Return(&entity.Lead{ID: id, Status: entity.LeadStatusNew}, nil)

	_, err := newManageUseCase(repo, nil, nil).Update(ctx, id, UpdateLeadInput{
		FirstName: strPtr("Janet"),
		Status:    strPtr("bogus"),
	}, Actor{})

	var de *DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, CodeValidation, de.Code)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestAssignRequiresStaff(t *testing.T) {
	ctx := context.Background()
	id := uuid.New().String()
	repo := new(MockLeadRepository)
	users := new(MockUserRepository)

	repo.On("FindByID", ctx, id).Return(&entity.Lead{ID: id}, nil)
	users.On("FindByID", ctx, "borrower-1").Return(&entity.User{ID: "borrower-1", Role: entity.RoleBorrower}, nil)

	_, err := newManageUseCase(repo, users, nil).Assign(ctx, id, "borrower-1", Actor{})

	assert.True(t, IsDomainError(err))
	repo.AssertNotCalled(t, "Assign", mock.Anything, mock.Anything, mock.Anything)
}

func TestAssignNotifiesOfficer(t *testing.T) {
	ctx := context.Background()
	id := uuid.New().String()
	repo := new(MockLeadRepository)
	users := new(MockUserRepository)
	pub := new(MockPublisher)
	officer := &entity.User{ID: "lo-1", FirstName: "Sam", LastName: "Lee", Email: "sam@example.com", Role: entity.RoleLoanOfficer}

	repo.On("FindByID", ctx, id).Return(&entity.Lead{ID: id, FirstName: "Jane", LastName: "Doe"}, nil)
	users.On("FindByID", ctx, "lo-1").Return(officer, nil)
	repo.On("Assign", ctx, id, &officer.ID).Return(nil)
	repo.On("AddNote", ctx, mock.MatchedBy(func(n *entity.Note) bool { return n.Content == "Assigned to Sam Lee" })).Return(nil)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	_, err := newManageUseCase(repo, users, pub).Assign(ctx, id, "lo-1", Actor{UserID: "admin-1"})

	require.NoError(t, err)
	assert.Equal(t, []string{entity.TemplateLOAssignment}, templatesOf(pub))
}

func TestDeleteLead(t *testing.T) {
	ctx := context.Background()
	id := uuid.New().String()
	repo := new(MockLeadRepository)
	repo.On("Delete", ctx, id).Return(entity.ErrLeadNotFound)

	err := newManageUseCase(repo, nil, nil).Delete(ctx, id)

	var de *DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, CodeNotFound, de.Code)
}
