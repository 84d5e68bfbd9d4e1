package access

import "testing"

func TestCanModify(t *testing.T) {
	tests := []struct {
		name    string
		p       Principal
		ownerID string
		want    bool
	}{
		{
			name:    "владелец",
			p:       Principal{UserID: "u1"},
			ownerID: "u1",
			want:    true,
		},
		{
			name:    "чужая сущность",
			p:       Principal{UserID: "u2"},
			ownerID: "u1",
			want:    false,
		},
		{
			name:    "администратор — чужая сущность",
			p:       Principal{UserID: "admin", UserType: UserTypeAdmin},
			ownerID: "u1",
			want:    true,
		},
		{
			name:    "пустой principal",
			p:       Principal{},
			ownerID: "",
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanModify(tt.p, tt.ownerID); got != tt.want {
				t.Errorf("CanModify() = %v, ожидается %v", got, tt.want)
			}
		})
	}
}

func TestIsValidUserType(t *testing.T) {
	if !IsValidUserType(UserTypeRegular) || !IsValidUserType(UserTypeAdmin) {
		t.Error("IsValidUserType() отклонил допустимый тип")
	}
	if IsValidUserType(1) {
		t.Error("IsValidUserType(1) = true, ожидается false")
	}
}
