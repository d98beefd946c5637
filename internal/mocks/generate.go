package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/court --output domain/court --outpkg courtmock --filename repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name MappingRepository --dir ../domain/court --output domain/court --outpkg courtmock --filename mapping_repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Notifier --dir ../usecase --output usecase --outpkg usecasemock --filename notifier_mock.go
