package library

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

const (
	// Package is the protobuf package of the backend contract.
	Package = "library"

	// ServiceName is the unqualified name of the backend service.
	ServiceName = "LibraryService"
)

// RPC method names of the backend service.
const (
	ListBooks         = "ListBooks"
	CreateBook        = "CreateBook"
	UpdateBook        = "UpdateBook"
	ListMembers       = "ListMembers"
	CreateMember      = "CreateMember"
	UpdateMember      = "UpdateMember"
	BorrowBook        = "BorrowBook"
	ReturnBook        = "ReturnBook"
	ListBorrowedBooks = "ListBorrowedBooks"
)

type fieldSpec struct {
	name     string
	number   int32
	kind     descriptorpb.FieldDescriptorProto_Type
	message  string
	repeated bool
}

type messageSpec struct {
	name   string
	fields []fieldSpec
}

type methodSpec struct {
	name   string
	input  string
	output string
}

const (
	typeInt32   = descriptorpb.FieldDescriptorProto_TYPE_INT32
	typeString  = descriptorpb.FieldDescriptorProto_TYPE_STRING
	typeMessage = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
)

// messageSpecs mirrors library.proto field for field. Field numbers are the
// wire contract; names are what the REST surface shows.
var messageSpecs = []messageSpec{
	{name: "Book", fields: []fieldSpec{
		{name: "id", number: 1, kind: typeInt32},
		{name: "title", number: 2, kind: typeString},
		{name: "author", number: 3, kind: typeString},
		{name: "isbn", number: 4, kind: typeString},
		{name: "published_year", number: 5, kind: typeInt32},
	}},
	{name: "Member", fields: []fieldSpec{
		{name: "id", number: 1, kind: typeInt32},
		{name: "name", number: 2, kind: typeString},
		{name: "email", number: 3, kind: typeString},
		{name: "phone", number: 4, kind: typeString},
	}},
	{name: "Loan", fields: []fieldSpec{
		{name: "id", number: 1, kind: typeInt32},
		{name: "book_id", number: 2, kind: typeInt32},
		{name: "member_id", number: 3, kind: typeInt32},
		{name: "borrowed_at", number: 4, kind: typeString},
		{name: "due_at", number: 5, kind: typeString},
		{name: "returned_at", number: 6, kind: typeString},
	}},
	{name: "ListBooksRequest"},
	{name: "ListBooksResponse", fields: []fieldSpec{
		{name: "books", number: 1, kind: typeMessage, message: "Book", repeated: true},
	}},
	{name: "CreateBookRequest", fields: []fieldSpec{
		{name: "book", number: 1, kind: typeMessage, message: "Book"},
	}},
	{name: "UpdateBookRequest", fields: []fieldSpec{
		{name: "book", number: 1, kind: typeMessage, message: "Book"},
	}},
	{name: "BookResponse", fields: []fieldSpec{
		{name: "book", number: 1, kind: typeMessage, message: "Book"},
	}},
	{name: "ListMembersRequest"},
	{name: "ListMembersResponse", fields: []fieldSpec{
		{name: "members", number: 1, kind: typeMessage, message: "Member", repeated: true},
	}},
	{name: "CreateMemberRequest", fields: []fieldSpec{
		{name: "member", number: 1, kind: typeMessage, message: "Member"},
	}},
	{name: "UpdateMemberRequest", fields: []fieldSpec{
		{name: "member", number: 1, kind: typeMessage, message: "Member"},
	}},
	{name: "MemberResponse", fields: []fieldSpec{
		{name: "member", number: 1, kind: typeMessage, message: "Member"},
	}},
	{name: "BorrowBookRequest", fields: []fieldSpec{
		{name: "book_id", number: 1, kind: typeInt32},
		{name: "member_id", number: 2, kind: typeInt32},
		{name: "due_at", number: 3, kind: typeString},
	}},
	{name: "ReturnBookRequest", fields: []fieldSpec{
		{name: "loan_id", number: 1, kind: typeInt32},
	}},
	{name: "LoanResponse", fields: []fieldSpec{
		{name: "loan", number: 1, kind: typeMessage, message: "Loan"},
	}},
	{name: "ListBorrowedBooksRequest", fields: []fieldSpec{
		{name: "member_id", number: 1, kind: typeInt32},
	}},
	{name: "ListBorrowedBooksResponse", fields: []fieldSpec{
		{name: "loans", number: 1, kind: typeMessage, message: "Loan", repeated: true},
	}},
}

var methodSpecs = []methodSpec{
	{name: ListBooks, input: "ListBooksRequest", output: "ListBooksResponse"},
	{name: CreateBook, input: "CreateBookRequest", output: "BookResponse"},
	{name: UpdateBook, input: "UpdateBookRequest", output: "BookResponse"},
	{name: ListMembers, input: "ListMembersRequest", output: "ListMembersResponse"},
	{name: CreateMember, input: "CreateMemberRequest", output: "MemberResponse"},
	{name: UpdateMember, input: "UpdateMemberRequest", output: "MemberResponse"},
	{name: BorrowBook, input: "BorrowBookRequest", output: "LoanResponse"},
	{name: ReturnBook, input: "ReturnBookRequest", output: "LoanResponse"},
	{name: ListBorrowedBooks, input: "ListBorrowedBooksRequest", output: "ListBorrowedBooksResponse"},
}

var (
	// File is the descriptor of library.proto.
	File protoreflect.FileDescriptor = mustBuildFile()

	// Service is the LibraryService descriptor.
	Service protoreflect.ServiceDescriptor = File.Services().ByName(ServiceName)
)

// Method looks up a backend method by its unqualified name.
func Method(name string) (protoreflect.MethodDescriptor, bool) {
	md := Service.Methods().ByName(protoreflect.Name(name))
	return md, md != nil
}

// FullMethod returns the gRPC path for a method, e.g. "/library.LibraryService/ListBooks".
func FullMethod(name string) string {
	return fmt.Sprintf("/%s.%s/%s", Package, ServiceName, name)
}

// Methods returns the method names in declaration order.
func Methods() []string {
	names := make([]string, len(methodSpecs))
	for i, m := range methodSpecs {
		names[i] = m.name
	}
	return names
}

// NewMessage returns an empty dynamic message of the named type ("Book", "LoanResponse", ...).
func NewMessage(name string) (*dynamicpb.Message, error) {
	md := File.Messages().ByName(protoreflect.Name(name))
	if md == nil {
		return nil, fmt.Errorf("unknown message %q", name)
	}
	return dynamicpb.NewMessage(md), nil
}

func mustBuildFile() protoreflect.FileDescriptor {
	fd, err := buildFile()
	if err != nil {
		panic(fmt.Sprintf("library: invalid schema: %v", err))
	}
	return fd
}

func buildFile() (protoreflect.FileDescriptor, error) {
	fdp := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("library.proto"),
		Package: proto.String(Package),
		Syntax:  proto.String("proto3"),
	}

	for _, m := range messageSpecs {
		dp := &descriptorpb.DescriptorProto{Name: proto.String(m.name)}
		for _, f := range m.fields {
			label := descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
			if f.repeated {
				label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED
			}
			fp := &descriptorpb.FieldDescriptorProto{
				Name:   proto.String(f.name),
				Number: proto.Int32(f.number),
				Label:  label.Enum(),
				Type:   f.kind.Enum(),
			}
			if f.kind == typeMessage {
				fp.TypeName = proto.String("." + Package + "." + f.message)
			}
			dp.Field = append(dp.Field, fp)
		}
		fdp.MessageType = append(fdp.MessageType, dp)
	}

	sp := &descriptorpb.ServiceDescriptorProto{Name: proto.String(ServiceName)}
	for _, m := range methodSpecs {
		sp.Method = append(sp.Method, &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(m.name),
			InputType:  proto.String("." + Package + "." + m.input),
			OutputType: proto.String("." + Package + "." + m.output),
		})
	}
	fdp.Service = []*descriptorpb.ServiceDescriptorProto{sp}

	return protodesc.NewFile(fdp, new(protoregistry.Files))
}
