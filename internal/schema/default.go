package schema

// Teaching-load report columns, in the order they appear in the source table.
var defaultFields = []string{
	"№",
	"Дисциплина",
	"Форма обучения",
	"Шифр специальности",
	"Специализация/Образовательная программа",
	"Группы",
	"Количество кредитов",
	"Компонент дисциплины",
	"Язык обучения",
	"Курс обучения",
	"Академический период",
	"Количество обучающихся",
	"Количество потоков (лекции/СРСП)",
	"Количество потоков (практические/лабораторные)",
	"Лекционных занятий",
	"Практических, семинарских занятий",
	"Лабораторных занятий",
	"СРСП",
	"Рубежный контроль",
	"Консультации",
	"Экзаменов",
	"Всего учебных часов к расчету штатов 1 семестр",
	"Всего учебных часов к расчету штатов 2 семестр",
	"Всего учебных часов к расчету",
	"Курсера (часы)",
	"Признак Курсера",
	"ФИО ППС",
	"Должность",
	"Форма оплаты",
	"Кол-во штатных часов или почасовых",
	"Шт. ед. по штату ИЛИ почасовой",
	"Штатная нагрузка",
	"Почасовая нагрузка",
	"Шт. ед. по штату",
	"Шт. ед. по почасовой",
	"Шт. ед. почасовой на 2-ой семестр",
	"Почасовая нагрузка Семестр 2",
	"Шт. ед. по почасовой по дис Семестр 2",
}

// "Практических, семинарских занятий" is not typed in the source report.
var defaultNumeric = []string{
	"№",
	"Количество кредитов",
	"Курс обучения",
	"Количество обучающихся",
	"Количество потоков (лекции/СРСП)",
	"Количество потоков (практические/лабораторные)",
	"Лекционных занятий",
	"Лабораторных занятий",
	"СРСП",
	"Рубежный контроль",
	"Консультации",
	"Экзаменов",
	"Всего учебных часов к расчету штатов 1 семестр",
	"Всего учебных часов к расчету штатов 2 семестр",
	"Всего учебных часов к расчету",
	"Курсера (часы)",
	"Кол-во штатных часов или почасовых",
	"Шт. ед. по штату ИЛИ почасовой",
	"Штатная нагрузка",
	"Почасовая нагрузка",
	"Шт. ед. по штату",
	"Шт. ед. по почасовой",
	"Шт. ед. почасовой на 2-ой семестр",
	"Почасовая нагрузка Семестр 2",
	"Шт. ед. по почасовой по дис Семестр 2",
}

var defaultSchema = MustNew(defaultFields, defaultNumeric)

// Default returns the 38-column teaching-load schema.
func Default() *Schema { return defaultSchema }
