package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/reflect/protoreflect"
)

func TestServiceDeclaresAllMethods(t *testing.T) {
	require.NotNil(t, Service)
	assert.Equal(t, protoreflect.FullName("library.LibraryService"), Service.FullName())

	want := []string{
		ListBooks, CreateBook, UpdateBook,
		ListMembers, CreateMember, UpdateMember,
		BorrowBook, ReturnBook, ListBorrowedBooks,
	}
	assert.Equal(t, want, Methods())
	assert.Equal(t, len(want), Service.Methods().Len())

	for _, name := range want {
		md, ok := Method(name)
		require.True(t, ok, name)
		assert.Equal(t, protoreflect.Name(name), md.Name())
	}
}

func TestMethodUnknown(t *testing.T) {
	_, ok := Method("DeleteBook")
	assert.False(t, ok)
}

func TestFullMethod(t *testing.T) {
	assert.Equal(t, "/library.LibraryService/BorrowBook", FullMethod(BorrowBook))
}

func TestMethodShapes(t *testing.T) {
	tests := []struct {
		method string
		input  protoreflect.Name
		output protoreflect.Name
	}{
		{ListBooks, "ListBooksRequest", "ListBooksResponse"},
		{CreateBook, "CreateBookRequest", "BookResponse"},
		{UpdateMember, "UpdateMemberRequest", "MemberResponse"},
		{ReturnBook, "ReturnBookRequest", "LoanResponse"},
		{ListBorrowedBooks, "ListBorrowedBooksRequest", "ListBorrowedBooksResponse"},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			md, ok := Method(tt.method)
			require.True(t, ok)
			assert.Equal(t, tt.input, md.Input().Name())
			assert.Equal(t, tt.output, md.Output().Name())
		})
	}
}

func TestRecordFieldNumbers(t *testing.T) {
	loan := File.Messages().ByName("Loan")
	require.NotNil(t, loan)

	assert.Equal(t, protoreflect.FieldNumber(2), loan.Fields().ByName("book_id").Number())
	assert.Equal(t, protoreflect.FieldNumber(6), loan.Fields().ByName("returned_at").Number())
	assert.Equal(t, protoreflect.Int32Kind, loan.Fields().ByName("member_id").Kind())
}

func TestNewMessage(t *testing.T) {
	msg, err := NewMessage("Book")
	require.NoError(t, err)
	assert.Equal(t, protoreflect.FullName("library.Book"), msg.Descriptor().FullName())

	_, err = NewMessage("Shelf")
	assert.Error(t, err)
}
