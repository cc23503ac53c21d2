package transliteration

// Romanization tables cover the most common surnames and given-name characters.
// The first entry is the Hanyu Pinyin form, the second the Cantonese
// (Hong Kong) spelling most often seen in passports and watchlists.

var compoundSurnames = []string{
	"欧阳", "太史", "端木", "上官", "司马",
	"东方", "独孤", "南宫", "万俟", "闻人",
	"夏侯", "诸葛", "尉迟", "公羊", "赫连",
	"澹台", "皇甫", "宗政", "濮阳", "公冶",
	"太叔", "申屠", "公孙", "慕容", "仲孙",
	"钟离", "长孙", "宇文", "司徒", "鲜于",
}

var surnameRomanizations = map[rune][]string{
	'王': {"Wang", "Wong"},
	'李': {"Li", "Lee"},
	'张': {"Zhang", "Chang", "Cheung"},
	'刘': {"Liu", "Lau"},
	'陈': {"Chen", "Chan"},
	'杨': {"Yang", "Yeung"},
	'赵': {"Zhao", "Chiu"},
	'黄': {"Huang", "Wong", "Hwang"},
	'周': {"Zhou", "Chow"},
	'吴': {"Wu", "Ng"},
	'徐': {"Xu", "Tsui"},
	'孙': {"Sun", "Suen"},
	'胡': {"Hu", "Wu"},
	'朱': {"Zhu", "Chu"},
	'高': {"Gao", "Ko"},
	'林': {"Lin", "Lam"},
	'何': {"He", "Ho"},
	'郭': {"Guo", "Kwok"},
	'马': {"Ma", "Mah"},
	'罗': {"Luo", "Lo"},
	'梁': {"Liang", "Leung"},
	'宋': {"Song", "Sung"},
	'郑': {"Zheng", "Cheng"},
	'谢': {"Xie", "Tse"},
	'韩': {"Han", "Hon"},
	'唐': {"Tang", "Tong"},
	'冯': {"Feng", "Fung"},
	'于': {"Yu", "Yue"},
	'董': {"Dong", "Tung"},
	'萧': {"Xiao", "Siu"},
	'程': {"Cheng", "Ching"},
	'曹': {"Cao", "Tso"},
	'袁': {"Yuan", "Yuen"},
	'邓': {"Deng", "Tang"},
	'许': {"Xu", "Hui"},
	'傅': {"Fu", "Foo"},
	'沈': {"Shen", "Shum"},
	'曾': {"Zeng", "Tsang"},
	'彭': {"Peng", "Pang"},
	'吕': {"Lv", "Lui"},
	'苏': {"Su", "So"},
	'卢': {"Lu", "Lo"},
	'蒋': {"Jiang", "Chiang"},
	'蔡': {"Cai", "Choi"},
	'贾': {"Jia", "Chia"},
	'丁': {"Ding", "Ting"},
	'魏': {"Wei", "Wai"},
	'薛': {"Xue", "Sit"},
	'叶': {"Ye", "Yip"},
	'阎': {"Yan", "Yim"},
	'余': {"Yu", "Yue"},
	'潘': {"Pan", "Poon"},
	'杜': {"Du", "To"},
	'戴': {"Dai", "Tai"},
	'夏': {"Xia", "Ha"},
	'钟': {"Zhong", "Chung"},
	'汪': {"Wang", "Wong"},
	'田': {"Tian", "Tin"},
	'任': {"Ren", "Yam"},
	'姜': {"Jiang", "Keung"},
	'范': {"Fan", "Faan"},
	'方': {"Fang", "Fong"},
	'石': {"Shi", "Shek"},
	'姚': {"Yao", "Yiu"},
	'谭': {"Tan", "Tam"},
	'廖': {"Liao", "Liu"},
	'邹': {"Zou", "Chau"},
	'熊': {"Xiong", "Hung"},
	'金': {"Jin", "Kam"},
	'陆': {"Lu", "Luk"},
	'郝': {"Hao", "Ho"},
	'孔': {"Kong", "Hung"},
	'白': {"Bai", "Pak"},
	'崔': {"Cui", "Chui"},
	'康': {"Kang", "Hong"},
	'毛': {"Mao", "Mo"},
	'邱': {"Qiu", "Yau"},
	'秦': {"Qin", "Chun"},
	'江': {"Jiang", "Kong"},
	'史': {"Shi", "See"},
	'顾': {"Gu", "Koo"},
	'侯': {"Hou", "Hau"},
	'邵': {"Shao", "Siu"},
	'孟': {"Meng", "Maang"},
	'龙': {"Long", "Lung"},
	'万': {"Wan", "Maan"},
	'段': {"Duan", "Tuen"},
	'漕': {"Cao", "Chou"},
	'钱': {"Qian", "Chin"},
	'汤': {"Tang", "Tong"},
	'尹': {"Yin", "Wan"},
	'黎': {"Li", "Lai"},
	'易': {"Yi", "Yik"},
	'常': {"Chang", "Sheung"},
	'武': {"Wu", "Mou"},
	'乔': {"Qiao", "Kiu"},
	'贺': {"He", "Ho"},
	'赖': {"Lai", "Loi"},
	'龚': {"Gong", "Kung"},
	'文': {"Wen", "Man"},
}

var givenNameRomanizations = map[rune][]string{
	'伟': {"Wei", "Wai"},
	'芳': {"Fang", "Fong"},
	'娜': {"Na", "Naa"},
	'敏': {"Min", "Man"},
	'静': {"Jing", "Ching"},
	'丽': {"Li", "Lai"},
	'强': {"Qiang", "Keung"},
	'磊': {"Lei", "Lui"},
	'军': {"Jun", "Kwan"},
	'洋': {"Yang", "Yeung"},
	'勇': {"Yong", "Yung"},
	'艳': {"Yan", "Yim"},
	'杰': {"Jie", "Kit"},
	'娟': {"Juan", "Kuen"},
	'涛': {"Tao", "To"},
	'明': {"Ming"},
	'超': {"Chao", "Chiu"},
	'秀': {"Xiu", "Sau"},
	'英': {"Ying"},
	'华': {"Hua", "Wah"},
	'慧': {"Hui", "Wai"},
	'嘉': {"Jia", "Ka"},
	'建': {"Jian", "Kin"},
	'文': {"Wen", "Man"},
	'清': {"Qing", "Ching"},
	'飞': {"Fei", "Fai"},
	'红': {"Hong", "Hung"},
	'梅': {"Mei", "Mui"},
	'平': {"Ping"},
	'刚': {"Gang", "Kong"},
	'桂': {"Gui", "Kwai"},
	'鹏': {"Peng", "Pang"},
	'玲': {"Ling"},
	'健': {"Jian", "Kin"},
	'斌': {"Bin", "Ban"},
	'辉': {"Hui", "Fai"},
	'霞': {"Xia", "Ha"},
	'鑫': {"Xin", "Sum"},
	'雷': {"Lei", "Lui"},
	'燕': {"Yan", "Yin"},
	'浩': {"Hao", "Ho"},
	'亮': {"Liang", "Leung"},
	'政': {"Zheng", "Ching"},
	'谦': {"Qian", "Him"},
	'亨': {"Heng", "Hang"},
	'利': {"Li", "Lee"},
	'元': {"Yuan", "Yuen"},
	'全': {"Quan", "Chuen"},
	'国': {"Guo", "Kwok"},
	'胜': {"Sheng", "Sing"},
	'学': {"Xue", "Hok"},
	'祥': {"Xiang", "Cheung"},
	'才': {"Cai", "Choi"},
	'发': {"Fa", "Faat"},
	'武': {"Wu", "Mou"},
	'新': {"Xin", "San"},
	'彬': {"Bin", "Ban"},
	'富': {"Fu"},
	'顺': {"Shun"},
	'信': {"Xin", "Shun"},
	'子': {"Zi", "Tsz"},
	'昌': {"Chang", "Cheong"},
	'成': {"Cheng", "Shing"},
	'康': {"Kang", "Hong"},
	'星': {"Xing", "Sing"},
	'光': {"Guang", "Kwong"},
	'天': {"Tian", "Tin"},
	'达': {"Da", "Taat"},
	'安': {"An", "On"},
	'岩': {"Yan", "Ngaam"},
	'中': {"Zhong", "Chung"},
	'茂': {"Mao", "Mau"},
	'进': {"Jin", "Chun"},
	'林': {"Lin", "Lam"},
	'有': {"You", "Yau"},
	'坚': {"Jian", "Kin"},
	'和': {"He", "Wo"},
	'彪': {"Biao", "Biu"},
	'博': {"Bo", "Bok"},
	'诚': {"Cheng", "Shing"},
	'先': {"Xian", "Sin"},
	'敬': {"Jing", "King"},
	'震': {"Zhen", "Chun"},
	'振': {"Zhen", "Chun"},
	'壮': {"Zhuang", "Chong"},
	'会': {"Hui", "Wui"},
	'思': {"Si", "See"},
	'群': {"Qun", "Kwan"},
	'豪': {"Hao", "Ho"},
	'心': {"Xin", "Sam"},
	'邦': {"Bang", "Bong"},
	'承': {"Cheng", "Shing"},
	'乐': {"Le", "Lok"},
	'绍': {"Shao", "Siu"},
	'功': {"Gong", "Kung"},
	'松': {"Song", "Chung"},
	'善': {"Shan", "Sin"},
	'厚': {"Hou", "Hau"},
	'庆': {"Qing", "Hing"},
	'民': {"Min", "Man"},
	'友': {"You", "Yau"},
	'裕': {"Yu", "Yue"},
	'河': {"He", "Ho"},
	'哲': {"Zhe", "Chit"},
	'江': {"Jiang", "Kong"},
	'宏': {"Hong", "Wang"},
	'宇': {"Yu", "Yue"},
}
